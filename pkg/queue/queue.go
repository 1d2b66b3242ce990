package queue

// Queue represents a basic queue.
type Queue interface {
	Enqueue(item interface{}) bool
	ReadAllMessages() []interface{}
	Size() int
	Clear()
}
