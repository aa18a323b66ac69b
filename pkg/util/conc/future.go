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

// Future 承载一次异步任务的结果。
// ch 在结果就绪后关闭，value 与 err 此后不再变更。
type Future[T any] struct {
	ch    chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{
		ch: make(chan struct{}),
	}
}

// Await 阻塞等待结果。
func (future *Future[T]) Await() (T, error) {
	<-future.ch
	return future.value, future.err
}

// Value 阻塞等待并返回结果值，忽略错误。
func (future *Future[T]) Value() T {
	<-future.ch
	return future.value
}

// Err 阻塞等待并返回错误。
func (future *Future[T]) Err() error {
	<-future.ch
	return future.err
}

// Done 返回结果就绪后关闭的通道。
func (future *Future[T]) Done() <-chan struct{} {
	return future.ch
}

// AwaitAll 等待所有 Future 完成，返回遇到的第一个错误。
func AwaitAll[T any](futures ...*Future[T]) error {
	var first error
	for i := range futures {
		_, err := futures[i].Await()
		if err != nil && first == nil {
			first = err
		}
	}
	return first
}
