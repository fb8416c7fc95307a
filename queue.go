package tn5250

// queue is a growable FIFO used by the keyboard to hold writes while a
// negotiation lock is active
type queue[T any] struct {
	buffer     []T
	startIndex int
	endIndex   int
}

func newQueue[T any](size int) *queue[T] {
	return &queue[T]{
		buffer: make([]T, size),
	}
}

func (q *queue[T]) straighten() {
	if q.startIndex == 0 {
		return
	}

	length := q.endIndex - q.startIndex
	if length > 0 {
		copy(q.buffer[:length], q.buffer[q.startIndex:q.endIndex])
	}

	var zero T
	for i := length; i < q.endIndex; i++ {
		q.buffer[i] = zero
	}

	q.startIndex = 0
	q.endIndex = length
}

func (q *queue[T]) Queue(elements ...T) {
	for _, element := range elements {
		if q.endIndex == len(q.buffer) {
			q.straighten()
		}

		if q.endIndex == len(q.buffer) {
			newBuffer := make([]T, max(2*len(q.buffer), 1))
			copy(newBuffer, q.buffer)
			q.buffer = newBuffer
		}

		q.buffer[q.endIndex] = element
		q.endIndex++
	}
}

// Dequeue removes the oldest element. ok is false when the queue is empty.
func (q *queue[T]) Dequeue() (value T, ok bool) {
	if q.startIndex == q.endIndex {
		return value, false
	}

	var zero T
	value = q.buffer[q.startIndex]
	q.buffer[q.startIndex] = zero
	q.startIndex++

	return value, true
}

func (q *queue[T]) Len() int {
	return q.endIndex - q.startIndex
}
