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


package core

import "fmt"

// ValidateArticle validates an Article according to domain rules.
//
// Validation rules:
//   - ID must be positive (point ids are article ids)
//   - at least one of Pregunta/Respuesta must be non-empty
//
// NOT validated:
//   - Grupo (zero is a legal group value in the source data)
//   - Obsoleto/Revisado (eligibility gating, not validity)
func ValidateArticle(article *Article) error {
	if article == nil {
		return fmt.Errorf("%w: article is nil", ErrInvalidArticle)
	}

	if article.ID == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidArticle, ErrMissingID)
	}

	if article.Pregunta == "" && article.Respuesta == "" {
		return fmt.Errorf("%w: %w", ErrInvalidArticle, ErrEmptyContent)
	}

	return nil
}
