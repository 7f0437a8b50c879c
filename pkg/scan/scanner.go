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

// Package scan implements the TCP probe engine: target and port expansion,
// the bounded worker pool that dials each (host, port) pair, dial-error
// classification, and banner grabbing.
package scan

import (
	"context"

	"github.com/calverix/portscan/pkg/models"
)

// Scanner probes targets fed on a channel and streams one result per target.
// Scan returns immediately; the result channel closes once every accepted
// target has been probed or the context ends. Stop cancels an in-flight scan.
type Scanner interface {
	Scan(ctx context.Context, targets <-chan models.Target) (<-chan models.ProbeResult, error)
	Stop() error
}
