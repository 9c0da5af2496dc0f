package world

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/annel0/mmo-miner/internal/vec"
)

// WorldConfig — неизменяемые параметры генерации мира.
// Задаётся при создании комнаты и не меняется до её закрытия.
type WorldConfig struct {
	Seed         int64   // Сид генерации шума и расстановки руды
	ChunkSize    int     // Тайлов на сторону чанка
	HeightScale  float64 // Масштаб итоговой высоты
	OreSpawnRate float64 // Доля тайлов с кандидатами на руду, [0, 1]
	MaxOreNodes  int     // Потолок рудных узлов на чанк
}

// Validate проверяет конфигурацию. Ошибка здесь фатальна:
// комната с некорректным миром не должна стартовать.
func (c WorldConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size должен быть > 0, получено %d", c.ChunkSize)
	}
	if c.OreSpawnRate < 0 || c.OreSpawnRate > 1 {
		return fmt.Errorf("ore_spawn_rate должен быть в [0, 1], получено %g", c.OreSpawnRate)
	}
	if c.HeightScale < 0 {
		return fmt.Errorf("height_scale должен быть >= 0, получено %g", c.HeightScale)
	}
	if c.MaxOreNodes < 0 {
		return fmt.Errorf("max_ore_nodes должен быть >= 0, получено %d", c.MaxOreNodes)
	}
	return nil
}

// Константы многооктавной генерации высот: базовая частота и три октавы,
// каждая следующая — частота ×2, амплитуда ×0.5. Одна октава даёт слишком
// однородный ландшафт.
const (
	baseFrequency = 0.01
	heightOctaves = 3

	// Влажность сэмплируется со смещением координат, чтобы
	// декоррелировать её от высоты.
	moistureOffset = 1000.0
	moistureScale  = 0.005

	// Частота шума расстановки руды
	oreNoiseScale = 0.02
)

// Простые числа для производного сида чанка
const (
	chunkSeedPrimeX = 73856093
	chunkSeedPrimeZ = 19349663
)

// WorldGenerator генерирует ландшафт мира по требованию.
// Генерация чанка — чистая функция (seed, chunkX, chunkZ, config):
// два генератора с одинаковым сидом дают побитово одинаковые чанки.
// Кеш по координатам — контрактное поведение, а не оптимизация:
// симуляция комнаты полагается на стабильную идентичность чанка между
// повторными запросами клиентов.
type WorldGenerator struct {
	config WorldConfig
	noise  *NoiseSource

	mu     sync.RWMutex
	chunks map[vec.ChunkCoord]*TerrainChunk
}

// NewWorldGenerator создаёт генератор мира с проверкой конфигурации
func NewWorldGenerator(config WorldConfig) (*WorldGenerator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("некорректная конфигурация мира: %w", err)
	}

	return &WorldGenerator{
		config: config,
		noise:  NewNoiseSource(config.Seed),
		chunks: make(map[vec.ChunkCoord]*TerrainChunk),
	}, nil
}

// Config возвращает конфигурацию генератора
func (wg *WorldGenerator) Config() WorldConfig {
	return wg.config
}

// ChunkCount возвращает число сгенерированных чанков
func (wg *WorldGenerator) ChunkCount() int {
	wg.mu.RLock()
	defer wg.mu.RUnlock()
	return len(wg.chunks)
}

// GenerateChunk возвращает чанк по координатам, генерируя его при первом
// обращении. Повторные вызовы возвращают тот же объект из кеша.
// Работает для любых целых координат, включая отрицательные.
func (wg *WorldGenerator) GenerateChunk(chunkX, chunkZ int) *TerrainChunk {
	coords := vec.ChunkCoord{X: chunkX, Z: chunkZ}

	wg.mu.RLock()
	if chunk, ok := wg.chunks[coords]; ok {
		wg.mu.RUnlock()
		return chunk
	}
	wg.mu.RUnlock()

	wg.mu.Lock()
	defer wg.mu.Unlock()

	// Перепроверяем под write lock: чанк мог появиться между блокировками
	if chunk, ok := wg.chunks[coords]; ok {
		return chunk
	}

	chunk := wg.buildChunk(coords)
	wg.chunks[coords] = chunk
	return chunk
}

// buildChunk выполняет собственно генерацию: сетки высот и биомов,
// затем расстановка руды.
func (wg *WorldGenerator) buildChunk(coords vec.ChunkCoord) *TerrainChunk {
	size := wg.config.ChunkSize
	chunk := NewTerrainChunk(coords, size)

	for x := 0; x < size; x++ {
		for z := 0; z < size; z++ {
			worldX := float64(coords.X*size + x)
			worldZ := float64(coords.Z*size + z)

			height := wg.HeightAt(worldX, worldZ)
			moisture := wg.moistureAt(worldX, worldZ)

			idx := chunk.tileIndex(x, z)
			chunk.Heights[idx] = height
			chunk.Biomes[idx] = ClassifyBiome(height, moisture)
		}
	}

	wg.placeOreNodes(chunk)

	return chunk
}

// HeightAt возвращает высоту ландшафта в мировой точке: сумма трёх октав
// шума (крупный рельеф, холмы, мелкая детализация), умноженная на
// HeightScale.
func (wg *WorldGenerator) HeightAt(worldX, worldZ float64) float64 {
	height := 0.0
	amplitude := 1.0
	frequency := baseFrequency

	for octave := 0; octave < heightOctaves; octave++ {
		height += wg.noise.Noise2D(worldX*frequency, worldZ*frequency) * amplitude
		amplitude *= 0.5
		frequency *= 2
	}

	return height * wg.config.HeightScale
}

// moistureAt возвращает значение влажности для классификации биомов
func (wg *WorldGenerator) moistureAt(worldX, worldZ float64) float64 {
	return wg.noise.Noise2D((worldX+moistureOffset)*moistureScale, (worldZ+moistureOffset)*moistureScale)
}

// placeOreNodes расставляет рудные узлы в чанке.
// Случайность берётся из локального ГПСЧ с производным сидом чанка,
// поэтому расстановка детерминирована для (seed, cx, cz, config).
func (wg *WorldGenerator) placeOreNodes(chunk *TerrainChunk) {
	size := wg.config.ChunkSize
	chunkSeed := wg.config.Seed +
		int64(chunk.Coords.X)*chunkSeedPrimeX +
		int64(chunk.Coords.Z)*chunkSeedPrimeZ
	rng := rand.New(rand.NewSource(chunkSeed))

	baseCount := int(float64(size*size) * wg.config.OreSpawnRate)
	candidates := baseCount + rng.Intn(3)
	if candidates > wg.config.MaxOreNodes {
		candidates = wg.config.MaxOreNodes
	}

	for i := 0; i < candidates; i++ {
		localX := rng.Intn(size)
		localZ := rng.Intn(size)
		worldX := float64(chunk.Coords.X*size + localX)
		worldZ := float64(chunk.Coords.Z*size + localZ)

		height := chunk.HeightAt(localX, localZ)
		biome := chunk.BiomeAt(localX, localZ)

		oreType, ok := wg.pickOreType(biome, worldX, worldZ)
		if !ok {
			// Для этого значения шума в биоме руда не водится
			continue
		}

		amount := oreType.BaseAmount() + rng.Float64()*oreType.BaseAmount()*0.5
		node := &OreNode{
			ID:        fmt.Sprintf("ore_%d_%d_%d", chunk.Coords.X, chunk.Coords.Z, i),
			Type:      oreType,
			X:         worldX,
			Y:         height + 0.5, // Чуть выше поверхности
			Z:         worldZ,
			Remaining: amount,
			MaxOre:    amount,
			Quality:   oreQuality(oreType, height, rng),
		}
		chunk.OreNodes = append(chunk.OreNodes, node)
	}
}

// pickOreType выбирает тип руды по биому и шумовому значению.
// Каждый биом предпочитает свои категории в своих полосах шума;
// false означает, что узел в этой точке не появляется.
func (wg *WorldGenerator) pickOreType(biome Biome, worldX, worldZ float64) (OreType, bool) {
	oreNoise := wg.noise.Noise2D(worldX*oreNoiseScale, worldZ*oreNoiseScale)

	switch biome {
	case BiomeMountains:
		// Редкая крипто-руда встречается только в горах
		if oreNoise > 0.3 {
			return OreCryptoBTC, true
		}
		if oreNoise > 0 {
			return OreCopper, true
		}
		return OreIron, true

	case BiomeHills:
		if oreNoise > 0.4 {
			return OreCryptoETH, true
		}
		if oreNoise > 0.1 {
			return OreCopper, true
		}
		return OreIron, true

	case BiomeDeepValley:
		// В долинах больше меди
		if oreNoise > 0.2 {
			return OreCopper, true
		}
		return OreIron, true

	case BiomePlains, BiomeForest, BiomeDesert:
		if oreNoise > 0.5 {
			return OreCopper, true
		}
		if oreNoise > -0.2 {
			return OreIron, true
		}
		return 0, false

	default:
		return 0, false
	}
}

// oreQuality вычисляет множитель качества: база 0.8–1.2, бонус за высоту
// (выше ландшафт — лучше качество), бонус крипто-рудам, потолок 2.0.
func oreQuality(oreType OreType, height float64, rng *rand.Rand) float64 {
	quality := 0.8 + rng.Float64()*0.4

	if height > 3 {
		quality += 0.1
	}
	if height > 6 {
		quality += 0.2
	}
	if oreType.IsCrypto() {
		quality += 0.3
	}

	if quality > 2.0 {
		quality = 2.0
	}
	return quality
}
