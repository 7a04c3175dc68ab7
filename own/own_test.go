//  Copyright (c) 2026 Uber Technologies, Inc.
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

package own

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMarkersAreIdentities(t *testing.T) {
	t.Parallel()

	buf := []int{1, 2, 3}
	r := Borrow(buf)
	r.Get()[0] = 4
	require.Equal(t, []int{4, 2, 3}, buf)

	moved := Move(buf)
	require.Equal(t, &buf[0], &moved[0])
	require.Equal(t, "x", Opaque("x"))
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
