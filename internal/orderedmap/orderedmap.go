// Package orderedmap provides a map that remembers the insertion order of its
// elements.
package orderedmap

import "container/list"

type entry[K comparable, V any] struct {
	key K
	val V
}

// Map is a map datastructure that allows accessing it's element in a
// fixed order.
type Map[K comparable, V any] struct {
	order   *list.List
	m       map[K]*list.Element
	zeroval V
}

func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{
		order: list.New(),
		m:     map[K]*list.Element{},
	}
}

// EnqueueIfNotExist adds val to the end of the map if key does not exist.
// It returns false if the key already existed.
func (m *Map[K, V]) EnqueueIfNotExist(key K, val V) (added bool) {
	if _, exist := m.m[key]; exist {
		return false
	}

	m.m[key] = m.order.PushBack(&entry[K, V]{key: key, val: val})

	return true
}

// Dequeue removes the value with the key from the map and returns it.
// If the key does not exist in the map, the zero value and false is returned.
func (m *Map[K, V]) Dequeue(key K) (removedElem V, removed bool) {
	e, exist := m.m[key]
	if !exist {
		return m.zeroval, false
	}
	delete(m.m, key)

	return m.order.Remove(e).(*entry[K, V]).val, true
}

// Foreach itereates through the map in order.
// When fn returns false the iteration is aborted.
func (m *Map[K, V]) Foreach(fn func(K, V) bool) {
	for e := m.order.Front(); e != nil; e = e.Next() {
		ent := e.Value.(*entry[K, V])
		if !fn(ent.key, ent.val) {
			return
		}
	}
}
