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


package evaluate

import "errors"

var (
	// ErrProviderRequired is returned when no embedding provider is provided.
	ErrProviderRequired = errors.New("embedding provider is required")

	// ErrMalformedRanking is returned when a ranking block cannot be parsed.
	ErrMalformedRanking = errors.New("malformed ranking block")

	// ErrNoRankings is returned when the rankings file holds no queries.
	ErrNoRankings = errors.New("no rankings to evaluate")

	// ErrUnknownArticle is returned when a ranking references an article
	// that is not present in the corpus.
	ErrUnknownArticle = errors.New("ranking references unknown article")
)
