package vec

import (
	"fmt"
	"math"
)

// ChunkCoord представляет целочисленные координаты чанка в мире.
// Используется как ключ кеша генератора и индекса загруженных чанков.
type ChunkCoord struct {
	X int `json:"chunk_x"`
	Z int `json:"chunk_z"`
}

// ChunkCoordAt возвращает координаты чанка, содержащего мировую точку.
// math.Floor обязателен: целочисленное деление ломается на отрицательных
// координатах (-1/32 == 0, а нужен чанк -1).
func ChunkCoordAt(pos Vec3, chunkSize int) ChunkCoord {
	size := float64(chunkSize)
	return ChunkCoord{
		X: int(math.Floor(pos.X / size)),
		Z: int(math.Floor(pos.Z / size)),
	}
}

// ChebyshevDistanceTo возвращает дистанцию по сетке чанков (метрика Чебышёва)
func (c ChunkCoord) ChebyshevDistanceTo(other ChunkCoord) int {
	dx := abs(c.X - other.X)
	dz := abs(c.Z - other.Z)
	if dx > dz {
		return dx
	}
	return dz
}

// String возвращает ключ вида "cx,cz" (формат индекса чанков в stateSync)
func (c ChunkCoord) String() string {
	return fmt.Sprintf("%d,%d", c.X, c.Z)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
