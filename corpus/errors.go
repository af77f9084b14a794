// Copyright 2025 Sabela Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package corpus

import "errors"

var (
	// ErrSourceUnreadable is returned when the spreadsheet cannot be opened
	// or read.
	ErrSourceUnreadable = errors.New("corpus: source unreadable")

	// ErrMissingColumn is returned when a required header column is absent.
	ErrMissingColumn = errors.New("corpus: required column missing")

	// ErrBadCell is returned when a numeric cell cannot be parsed.
	ErrBadCell = errors.New("corpus: malformed cell")
)
