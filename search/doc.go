// Copyright 2025 Poiesic Systems
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


// Package search retrieves document chunks relevant to a query.
//
// A Retriever embeds the query, asks the vector store for the top-K chunks
// whose cosine similarity is at least the minimum score, and reports each
// stage to an optional SearchMonitor. Augment renders the hits into the
// user message handed to the chat model.
package search
