package world

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() WorldConfig {
	return WorldConfig{
		Seed:         12345,
		ChunkSize:    32,
		HeightScale:  10,
		OreSpawnRate: 0.02,
		MaxOreNodes:  10,
	}
}

func TestWorldGenerator_ConfigValidation(t *testing.T) {
	// Некорректные конфигурации фатальны при создании генератора
	badConfigs := []WorldConfig{
		{Seed: 1, ChunkSize: 0, HeightScale: 10, OreSpawnRate: 0.02, MaxOreNodes: 10},
		{Seed: 1, ChunkSize: -4, HeightScale: 10, OreSpawnRate: 0.02, MaxOreNodes: 10},
		{Seed: 1, ChunkSize: 32, HeightScale: 10, OreSpawnRate: -0.1, MaxOreNodes: 10},
		{Seed: 1, ChunkSize: 32, HeightScale: 10, OreSpawnRate: 1.5, MaxOreNodes: 10},
		{Seed: 1, ChunkSize: 32, HeightScale: -1, OreSpawnRate: 0.02, MaxOreNodes: 10},
		{Seed: 1, ChunkSize: 32, HeightScale: 10, OreSpawnRate: 0.02, MaxOreNodes: -1},
	}

	for _, cfg := range badConfigs {
		wg, err := NewWorldGenerator(cfg)
		assert.Error(t, err, "конфигурация %+v должна быть отвергнута", cfg)
		assert.Nil(t, wg, "генератор не должен создаваться с некорректной конфигурацией")
	}

	wg, err := NewWorldGenerator(testConfig())
	require.NoError(t, err, "корректная конфигурация должна приниматься")
	require.NotNil(t, wg)
}

func TestWorldGenerator_Determinism(t *testing.T) {
	// Два независимых генератора с одним сидом дают побитово одинаковые чанки
	wg1, err := NewWorldGenerator(testConfig())
	require.NoError(t, err)
	wg2, err := NewWorldGenerator(testConfig())
	require.NoError(t, err)

	coords := [][2]int{{0, 0}, {1, -1}, {-3, 7}, {100, -250}, {-100000, 100000}}
	for _, c := range coords {
		chunk1 := wg1.GenerateChunk(c[0], c[1])
		chunk2 := wg2.GenerateChunk(c[0], c[1])

		assert.Equal(t, chunk1.Heights, chunk2.Heights, "высоты чанка (%d,%d) должны совпадать", c[0], c[1])
		assert.Equal(t, chunk1.Biomes, chunk2.Biomes, "биомы чанка (%d,%d) должны совпадать", c[0], c[1])
		require.Equal(t, len(chunk1.OreNodes), len(chunk2.OreNodes), "число узлов чанка (%d,%d) должно совпадать", c[0], c[1])
		for i := range chunk1.OreNodes {
			assert.Equal(t, *chunk1.OreNodes[i], *chunk2.OreNodes[i], "узел %d чанка (%d,%d) должен совпадать", i, c[0], c[1])
		}
	}
}

func TestWorldGenerator_DifferentSeeds(t *testing.T) {
	// Разные сиды дают разные ландшафты
	cfg1 := testConfig()
	cfg2 := testConfig()
	cfg2.Seed = 54321

	wg1, err := NewWorldGenerator(cfg1)
	require.NoError(t, err)
	wg2, err := NewWorldGenerator(cfg2)
	require.NoError(t, err)

	chunk1 := wg1.GenerateChunk(0, 0)
	chunk2 := wg2.GenerateChunk(0, 0)

	assert.NotEqual(t, chunk1.Heights, chunk2.Heights, "разные сиды должны давать разные высоты")
}

func TestWorldGenerator_CacheHit(t *testing.T) {
	// Повторный запрос возвращает тот же объект из кеша
	wg, err := NewWorldGenerator(testConfig())
	require.NoError(t, err)

	chunk1 := wg.GenerateChunk(3, -5)
	chunk2 := wg.GenerateChunk(3, -5)

	assert.Same(t, chunk1, chunk2, "повторный запрос должен попадать в кеш")
	assert.Equal(t, 1, wg.ChunkCount(), "в кеше должен быть один чанк")
}

func TestWorldGenerator_ChunkDimensions(t *testing.T) {
	cfg := testConfig()
	wg, err := NewWorldGenerator(cfg)
	require.NoError(t, err)

	chunk := wg.GenerateChunk(0, 0)
	assert.Len(t, chunk.Heights, cfg.ChunkSize*cfg.ChunkSize, "сетка высот должна быть ChunkSize²")
	assert.Len(t, chunk.Biomes, cfg.ChunkSize*cfg.ChunkSize, "сетка биомов должна быть ChunkSize²")
}

func TestWorldGenerator_OreNodeInvariants(t *testing.T) {
	// Для каждого узла: 0 <= Remaining <= MaxOre, качество в (0, 2],
	// позиция внутри футпринта чанка, количество не выше потолка
	cfg := testConfig()
	cfg.OreSpawnRate = 0.05
	cfg.MaxOreNodes = 20
	wg, err := NewWorldGenerator(cfg)
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for cx := -3; cx <= 3; cx++ {
		for cz := -3; cz <= 3; cz++ {
			chunk := wg.GenerateChunk(cx, cz)
			assert.LessOrEqual(t, len(chunk.OreNodes), cfg.MaxOreNodes, "число узлов не должно превышать MaxOreNodes")

			for _, node := range chunk.OreNodes {
				assert.GreaterOrEqual(t, node.Remaining, 0.0, "Remaining не должен быть отрицательным")
				assert.LessOrEqual(t, node.Remaining, node.MaxOre, "Remaining не должен превышать MaxOre")
				assert.Greater(t, node.Quality, 0.0, "качество должно быть положительным")
				assert.LessOrEqual(t, node.Quality, 2.0, "качество ограничено множителем 2.0")

				minX := float64(cx * cfg.ChunkSize)
				minZ := float64(cz * cfg.ChunkSize)
				assert.GreaterOrEqual(t, node.X, minX, "узел должен лежать внутри чанка по X")
				assert.Less(t, node.X, minX+float64(cfg.ChunkSize), "узел должен лежать внутри чанка по X")
				assert.GreaterOrEqual(t, node.Z, minZ, "узел должен лежать внутри чанка по Z")
				assert.Less(t, node.Z, minZ+float64(cfg.ChunkSize), "узел должен лежать внутри чанка по Z")

				_, dup := seen[node.ID]
				assert.False(t, dup, "идентификаторы узлов должны быть уникальны: %s", node.ID)
				seen[node.ID] = struct{}{}
			}
		}
	}
}

func TestWorldGenerator_HeightContinuity(t *testing.T) {
	// Высоты соседних тайлов отличаются ограниченно: когерентный шум
	// не даёт разрывных скачков
	wg, err := NewWorldGenerator(testConfig())
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	maxDelta := 0.0
	for i := 0; i < 500; i++ {
		x := float64(rng.Intn(4000) - 2000)
		z := float64(rng.Intn(4000) - 2000)
		h1 := wg.HeightAt(x, z)
		h2 := wg.HeightAt(x+1, z)
		h3 := wg.HeightAt(x, z+1)

		delta := math.Max(math.Abs(h1-h2), math.Abs(h1-h3))
		if delta > maxDelta {
			maxDelta = delta
		}
	}

	// При базовой частоте 0.01 и масштабе 10 перепад на один тайл мал;
	// граница с запасом к наклону шума
	assert.Less(t, maxDelta, 2.5, "перепад высот между соседними тайлами должен быть ограничен, максимум %f", maxDelta)
}

func TestWorldGenerator_ChunkBorderContinuity(t *testing.T) {
	// Высоты на границе соседних чанков продолжают друг друга
	wg, err := NewWorldGenerator(testConfig())
	require.NoError(t, err)

	size := wg.Config().ChunkSize
	left := wg.GenerateChunk(0, 0)
	right := wg.GenerateChunk(1, 0)

	for z := 0; z < size; z++ {
		hLeft := left.HeightAt(size-1, z)
		hRight := right.HeightAt(0, z)
		assert.Less(t, math.Abs(hLeft-hRight), 2.5, "граница чанков не должна давать разрыв в строке %d", z)
	}
}

func TestWorldGenerator_ZeroSpawnRate(t *testing.T) {
	// При нулевой плотности руды узлы не генерируются
	cfg := testConfig()
	cfg.OreSpawnRate = 0
	cfg.MaxOreNodes = 0
	wg, err := NewWorldGenerator(cfg)
	require.NoError(t, err)

	chunk := wg.GenerateChunk(0, 0)
	assert.Empty(t, chunk.OreNodes, "при MaxOreNodes=0 узлов быть не должно")
}

func TestTerrainChunk_FindAndRemoveOre(t *testing.T) {
	cfg := testConfig()
	cfg.OreSpawnRate = 0.05
	wg, err := NewWorldGenerator(cfg)
	require.NoError(t, err)

	// Ищем чанк хотя бы с одним узлом
	var chunk *TerrainChunk
	for cx := 0; cx < 16 && chunk == nil; cx++ {
		c := wg.GenerateChunk(cx, 0)
		if len(c.OreNodes) > 0 {
			chunk = c
		}
	}
	require.NotNil(t, chunk, "среди 16 чанков должен найтись хотя бы один с рудой")

	id := chunk.OreNodes[0].ID
	node, ok := chunk.FindOre(id)
	require.True(t, ok, "узел должен находиться по id")
	assert.Equal(t, id, node.ID)

	assert.True(t, chunk.RemoveOre(id), "удаление существующего узла должно возвращать true")
	_, ok = chunk.FindOre(id)
	assert.False(t, ok, "удалённый узел не должен находиться")
	assert.False(t, chunk.RemoveOre(id), "повторное удаление должно возвращать false")
}

func BenchmarkWorldGenerator_GenerateChunk(b *testing.B) {
	wg, err := NewWorldGenerator(testConfig())
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		wg.GenerateChunk(i, -i)
	}
}

func BenchmarkWorldGenerator_CacheHit(b *testing.B) {
	wg, err := NewWorldGenerator(testConfig())
	if err != nil {
		b.Fatal(err)
	}
	wg.GenerateChunk(0, 0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		wg.GenerateChunk(0, 0)
	}
}
