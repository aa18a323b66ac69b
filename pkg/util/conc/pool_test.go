// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package conc

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
)

type PoolSuite struct {
	suite.Suite
}

func (s *PoolSuite) TestSubmitAndAwait() {
	pool := NewPool[int](4)
	defer pool.Release()
	s.Equal(4, pool.Cap())

	future := pool.Submit(func() (int, error) {
		return 42, nil
	})
	v, err := future.Await()
	s.NoError(err)
	s.Equal(42, v)
}

func (s *PoolSuite) TestSubmitError() {
	pool := NewPool[int](1)
	defer pool.Release()

	boom := errors.New("boom")
	future := pool.Submit(func() (int, error) {
		return 0, boom
	})
	s.ErrorIs(future.Err(), boom)
	s.Equal(0, future.Value())
}

func (s *PoolSuite) TestAwaitAllReturnsFirstError() {
	pool := NewPool[int](4)
	defer pool.Release()

	boom := errors.New("boom")
	var futures []*Future[int]
	for i := 0; i < 8; i++ {
		n := i
		futures = append(futures, pool.Submit(func() (int, error) {
			if n == 3 {
				return 0, boom
			}
			return n, nil
		}))
	}
	s.ErrorIs(AwaitAll(futures...), boom)
}

func (s *PoolSuite) TestAwaitAllSuccess() {
	pool := NewPool[int](2)
	defer pool.Release()

	var sum atomic.Int64
	var futures []*Future[int]
	for i := 1; i <= 10; i++ {
		n := i
		futures = append(futures, pool.Submit(func() (int, error) {
			sum.Add(int64(n))
			return n, nil
		}))
	}
	s.NoError(AwaitAll(futures...))
	s.EqualValues(55, sum.Load())
}

func (s *PoolSuite) TestDoneChannel() {
	pool := NewPool[string](1)
	defer pool.Release()

	future := pool.Submit(func() (string, error) {
		return "done", nil
	})
	select {
	case <-future.Done():
		s.Equal("done", future.Value())
	case <-time.After(time.Second):
		s.Fail("future never completed")
	}
}

func (s *PoolSuite) TestPreHandler() {
	var calls atomic.Int32
	pool := NewPool[int](2, WithPreHandler(func() {
		calls.Add(1)
	}))
	defer pool.Release()

	var futures []*Future[int]
	for i := 0; i < 3; i++ {
		futures = append(futures, pool.Submit(func() (int, error) {
			return 0, nil
		}))
	}
	s.NoError(AwaitAll(futures...))
	s.EqualValues(3, calls.Load())
}

func (s *PoolSuite) TestReleaseTimeout() {
	pool := NewPool[int](1)
	future := pool.Submit(func() (int, error) {
		return 1, nil
	})
	_, err := future.Await()
	s.NoError(err)
	s.NoError(pool.ReleaseTimeout(time.Second))
}

func TestPool(t *testing.T) {
	suite.Run(t, new(PoolSuite))
}
