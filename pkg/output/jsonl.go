/*
 * Copyright 2025 Calverix Labs.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package output

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/calverix/portscan/pkg/models"
	"github.com/calverix/portscan/pkg/sweeper"
)

// FileSink records results as JSON lines, one self-contained object per
// probe, in arrival order. With openOnly set, quiet ports are skipped and the
// file holds just the findings.
type FileSink struct {
	f        *os.File
	enc      *json.Encoder
	openOnly bool
}

var _ sweeper.Sink = (*FileSink)(nil)

func NewFileSink(path string, openOnly bool) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open results file: %w", err)
	}

	return &FileSink{
		f:        f,
		enc:      json.NewEncoder(f),
		openOnly: openOnly,
	}, nil
}

func (s *FileSink) Write(result *models.ProbeResult) error {
	if s.openOnly && result.State != models.StateOpen {
		return nil
	}

	return s.enc.Encode(result)
}

func (s *FileSink) Close() error {
	return s.f.Close()
}
