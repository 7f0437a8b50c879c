//go:build unix

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

package sweeper

import (
	"math"

	"golang.org/x/sys/unix"
)

// maxOpenFiles returns the soft RLIMIT_NOFILE, or 0 when it cannot be read.
func maxOpenFiles() int {
	var lim unix.Rlimit

	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &lim); err != nil {
		return 0
	}

	cur := uint64(lim.Cur)
	if cur > math.MaxInt32 {
		return math.MaxInt32
	}

	return int(cur)
}
