// Copyright 2026 Echotwin Labs
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


package crawler

import "errors"

var (
	// ErrInvalidSourceURL indicates the URL matched no recognized shape.
	ErrInvalidSourceURL = errors.New("invalid source url")

	// ErrFetch indicates a transport-level failure retrieving the source.
	ErrFetch = errors.New("fetch failed")

	// ErrParse indicates the retrieved payload was malformed.
	ErrParse = errors.New("parse failed")

	// ErrNoContent indicates the source yielded empty or whitespace-only text.
	ErrNoContent = errors.New("source has no content")
)
