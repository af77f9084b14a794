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


// Package embed defines the embedding provider abstraction shared by
// ingestion, retrieval and evaluation.
//
// A Provider converts text into a fixed-length vector. Three implementations
// exist, one per backend:
//
//   - embed/wordvec: word-vector model trained from the corpus (wego)
//   - embed/transformer: pretrained encoder by name (langchaingo huggingface)
//   - embed/openai: hosted embedding API (langchaingo openai)
//
// The provider is selected once at startup by configuration and injected
// into every component that embeds text; it is never re-resolved per call.
// VectorSize is queryable without a test embedding so ingestion can size the
// collection before encoding begins — the hosted provider is the one
// unavoidable exception and probes once at construction.
//
// embed/mock provides a deterministic test double.
package embed
