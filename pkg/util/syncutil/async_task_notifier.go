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

package syncutil

import "context"

// AsyncTaskNotifier 协调一个后台任务的取消与收尾：
// 持有方通过 Cancel 通知任务退出，任务通过 Finish 上报结果，
// 持有方再经 BlockUntilFinish 等待任务真正结束。
type AsyncTaskNotifier[T any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	result T
}

// NewAsyncTaskNotifier 创建一个新的 AsyncTaskNotifier。
func NewAsyncTaskNotifier[T any]() *AsyncTaskNotifier[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &AsyncTaskNotifier[T]{
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Context 返回任务侧监听取消信号的 context。
func (n *AsyncTaskNotifier[T]) Context() context.Context {
	return n.ctx
}

// Cancel 通知任务退出，不等待任务结束。
func (n *AsyncTaskNotifier[T]) Cancel() {
	n.cancel()
}

// Finish 由任务侧调用，记录结果并标记任务结束。
// 只能调用一次。
func (n *AsyncTaskNotifier[T]) Finish(result T) {
	n.result = result
	close(n.done)
}

// FinishChan 返回任务结束后关闭的通道。
func (n *AsyncTaskNotifier[T]) FinishChan() <-chan struct{} {
	return n.done
}

// BlockUntilFinish 阻塞等待任务调用 Finish。
func (n *AsyncTaskNotifier[T]) BlockUntilFinish() T {
	<-n.done
	return n.result
}

// BlockAndGetResult 先通知任务退出，再等待并返回结果。
func (n *AsyncTaskNotifier[T]) BlockAndGetResult() T {
	n.cancel()
	<-n.done
	return n.result
}
