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

// Package output renders scan results for people and for files. The console
// sink streams open ports as they are found; the summary renderer draws the
// closing report; the file sink records every result as JSON lines.
package output

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00CEC9"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6C5CE7")).Underline(true)

	openStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00B894"))
	troubleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FD79A8"))
	metaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#636e72"))
)
