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


package embed

import "errors"

var (
	// ErrModelNotLoaded is returned when a provider is constructed with
	// neither a prebuilt model nor training data.
	ErrModelNotLoaded = errors.New("embed: model not loaded and no training data supplied")

	// ErrEmptyBatch is returned when a batch embedding call receives no
	// texts.
	ErrEmptyBatch = errors.New("embed: empty batch")

	// ErrBackend is returned when the underlying embedding backend fails.
	ErrBackend = errors.New("embed: backend failure")
)
