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


package config

import "errors"

var (
	// ErrMissingSetting is returned when a required setting is absent.
	ErrMissingSetting = errors.New("config: required setting missing")

	// ErrInvalidSetting is returned when a setting cannot be parsed or is
	// out of range.
	ErrInvalidSetting = errors.New("config: invalid setting")

	// ErrUnknownBackend is returned when a backend selector is not
	// recognized.
	ErrUnknownBackend = errors.New("config: unknown backend")
)
