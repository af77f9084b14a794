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


package vectorstore

import "errors"

var (
	// ErrNotFound indicates the requested point does not exist.
	ErrNotFound = errors.New("point not found")

	// ErrCollectionMissing indicates the collection has not been created.
	ErrCollectionMissing = errors.New("collection does not exist")

	// ErrDimensionMismatch indicates a vector's length does not match the
	// collection dimension.
	ErrDimensionMismatch = errors.New("vector dimension does not match collection")

	// ErrInvalidParams indicates invalid search parameters.
	ErrInvalidParams = errors.New("invalid search parameters")

	// ErrBackend indicates a store backend failure.
	ErrBackend = errors.New("vector store backend failure")

	// ErrSerializationFailed indicates a point could not be encoded or
	// decoded.
	ErrSerializationFailed = errors.New("serialization failed")
)
