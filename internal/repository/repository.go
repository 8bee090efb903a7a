package repository

import "github.com/lib/pq"

// intArray приводит []int к массиву, понятному драйверу pq
func intArray(ids []int) pq.Int64Array {
	arr := make(pq.Int64Array, len(ids))
	for i, id := range ids {
		arr[i] = int64(id)
	}
	return arr
}
