/*
Copyright 2011-2026 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package transform

// None is the identity transform: copy-block and skipped stages both
// reduce to this at decode time.
type None struct{}

func NewNone() (*None, error) { return &None{}, nil }

func (t *None) MaxEncodedLen(srcLen int) int { return srcLen }

func (t *None) Forward(src, dst []byte) (uint, uint, error) {
	n := copy(dst, src)
	return uint(n), uint(n), nil
}

func (t *None) Inverse(src, dst []byte) (uint, uint, error) {
	n := copy(dst, src)
	return uint(n), uint(n), nil
}
