package world

import (
	"github.com/annel0/mmo-miner/internal/vec"
)

// TerrainChunk представляет квадратный участок ландшафта Size×Size тайлов.
// Генерируется один раз для пары координат и кешируется на всё время жизни
// генератора; сетки высот и биомов после генерации не изменяются. Живой
// список рудных узлов мутирует только симуляция комнаты (однопоточный
// тик-цикл), поэтому собственного мьютекса у чанка нет.
type TerrainChunk struct {
	Coords vec.ChunkCoord
	Size   int

	// Heights и Biomes — плоские сетки Size² в row-major порядке:
	// индекс = localX*Size + localZ.
	Heights []float64
	Biomes  []Biome

	OreNodes []*OreNode
}

// NewTerrainChunk создаёт пустой чанк указанного размера
func NewTerrainChunk(coords vec.ChunkCoord, size int) *TerrainChunk {
	return &TerrainChunk{
		Coords:  coords,
		Size:    size,
		Heights: make([]float64, size*size),
		Biomes:  make([]Biome, size*size),
	}
}

// tileIndex возвращает индекс тайла в плоской сетке
func (c *TerrainChunk) tileIndex(localX, localZ int) int {
	return localX*c.Size + localZ
}

// HeightAt возвращает высоту тайла по локальным координатам
func (c *TerrainChunk) HeightAt(localX, localZ int) float64 {
	return c.Heights[c.tileIndex(localX, localZ)]
}

// BiomeAt возвращает биом тайла по локальным координатам
func (c *TerrainChunk) BiomeAt(localX, localZ int) Biome {
	return c.Biomes[c.tileIndex(localX, localZ)]
}

// FindOre ищет живой рудный узел по идентификатору
func (c *TerrainChunk) FindOre(id string) (*OreNode, bool) {
	for _, node := range c.OreNodes {
		if node.ID == id {
			return node, true
		}
	}
	return nil, false
}

// RemoveOre удаляет узел из живой коллекции чанка.
// Удалённый узел больше никогда не появляется: сетки чанка кешированы,
// повторная генерация для тех же координат не выполняется.
func (c *TerrainChunk) RemoveOre(id string) bool {
	for i, node := range c.OreNodes {
		if node.ID == id {
			c.OreNodes = append(c.OreNodes[:i], c.OreNodes[i+1:]...)
			return true
		}
	}
	return false
}

// BiomeCodes возвращает плоскую сетку биомов как байтовые коды
// (индексы в BiomePalette) для передачи по сети.
func (c *TerrainChunk) BiomeCodes() []byte {
	codes := make([]byte, len(c.Biomes))
	for i, b := range c.Biomes {
		codes[i] = byte(b)
	}
	return codes
}
