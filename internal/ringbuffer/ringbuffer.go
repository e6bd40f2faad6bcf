package ringbuffer

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("write to closed ring buffer")

// RingBuffer is a concurrent-safe FIFO between one producer and one consumer
// of samples, IQ pairs on the input side and audio on the output side.
type RingBuffer[T any] struct {
	buf        []T
	size       int
	readIndex  int
	writeIndex int
	closed     bool
	mu         sync.Mutex
	cond       *sync.Cond
}

// New creates a new RingBuffer that holds up to size-1 samples.
func New[T any](size int) *RingBuffer[T] {
	if size < 2 {
		size = 2
	}
	rb := &RingBuffer[T]{
		buf:  make([]T, size),
		size: size,
	}
	rb.cond = sync.NewCond(&rb.mu)
	return rb
}

// Len returns the number of samples waiting to be read.
func (rb *RingBuffer[T]) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.availableRead()
}

func (rb *RingBuffer[T]) availableWrite() int {
	return rb.size - rb.availableRead() - 1
}

func (rb *RingBuffer[T]) availableRead() int {
	if rb.writeIndex >= rb.readIndex {
		return rb.writeIndex - rb.readIndex
	}
	return rb.size - rb.readIndex + rb.writeIndex
}

// Close marks the buffer as closed, indicating no more writes will occur.
// It wakes up all waiting readers and writers.
func (rb *RingBuffer[T]) Close() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.closed = true
	rb.cond.Broadcast()
}

// Write adds data to the buffer, blocking until space is available. If the
// buffer is closed while waiting, the rest of data is discarded.
func (rb *RingBuffer[T]) Write(data []T) error {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for i := 0; i < len(data); {
		for !rb.closed && rb.availableWrite() == 0 {
			rb.cond.Wait()
		}
		if rb.closed {
			return ErrClosed
		}

		// Copy up to the end of the buffer or the free space, whichever is
		// first; a wrapped write takes a second pass.
		free := rb.availableWrite()
		end := min(rb.size, rb.writeIndex+free)
		written := copy(rb.buf[rb.writeIndex:end], data[i:])
		rb.writeIndex = (rb.writeIndex + written) % rb.size
		i += written
		rb.cond.Broadcast()
	}
	return nil
}

// Read retrieves n samples from the buffer, blocking until they are available.
// Once the buffer is closed it returns what is left, and nil when empty.
func (rb *RingBuffer[T]) Read(n int) []T {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for !rb.closed && rb.availableRead() < n {
		rb.cond.Wait()
	}

	readSize := min(n, rb.availableRead())
	if readSize <= 0 {
		return nil
	}

	data := make([]T, readSize)
	if rb.readIndex+readSize <= rb.size {
		copy(data, rb.buf[rb.readIndex:rb.readIndex+readSize])
	} else {
		part1 := rb.size - rb.readIndex
		copy(data, rb.buf[rb.readIndex:])
		copy(data[part1:], rb.buf[0:readSize-part1])
	}
	rb.readIndex = (rb.readIndex + readSize) % rb.size
	rb.cond.Broadcast()
	return data
}
