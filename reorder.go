package nestrack

import "slices"

// ReorderIndices computes how to move the element at source so that it ends
// up at insertion, using the insert-then-erase strategy: a copy of the element
// is inserted at insertAt, then the original, now at eraseAt, is erased.
//
// When moving up (insertion < source), the inserted copy shifts the original
// by one, so eraseAt is source+1. insertion is clamped to [0, size-1]. When
// moving down, the copy is inserted after the element currently at insertion,
// so that after erasing the original it lands exactly at insertion.
//
// ok is false if source is out of range or the move is a no-op.
func ReorderIndices(size, source, insertion int) (insertAt, eraseAt int, ok bool) {
	if source < 0 || source >= size {
		return 0, 0, false
	}
	movingUp := insertion < source
	eraseAt = source
	if movingUp {
		eraseAt++
	}
	insertion = max(0, min(insertion, size-1))
	if insertion == source {
		return 0, 0, false
	}
	insertAt = insertion
	if !movingUp {
		insertAt++
	}
	return insertAt, eraseAt, true
}

// Reorder moves the element at source to insertion using ReorderIndices;
// clone is used to produce the inserted element. The returned slice may share
// memory with s. If clone fails, s is returned unchanged with the error.
func Reorder[T any](s []T, source, insertion int, clone func(T) (T, error)) ([]T, error) {
	insertAt, eraseAt, ok := ReorderIndices(len(s), source, insertion)
	if !ok {
		return s, nil
	}
	elem, err := clone(s[source])
	if err != nil {
		return s, err
	}
	s = slices.Insert(s, insertAt, elem)
	return slices.Delete(s, eraseAt, eraseAt+1), nil
}
