package fetch

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// CacheConfig holds instruction cache geometry.
type CacheConfig struct {
	// Size in bytes
	Size int
	// Associativity (number of ways)
	Associativity int
	// BlockSize in bytes (cache line size)
	BlockSize int
}

// DefaultCacheConfig returns the EE instruction cache geometry:
// 16KB, 2-way, 64B lines.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Size:          16 * 1024,
		Associativity: 2,
		BlockSize:     64,
	}
}

// Validate checks that the geometry describes a realizable cache.
func (c CacheConfig) Validate() error {
	if c.Size <= 0 || c.Associativity <= 0 || c.BlockSize <= 0 {
		return fmt.Errorf("cache geometry must be positive: size=%d ways=%d block=%d",
			c.Size, c.Associativity, c.BlockSize)
	}
	if c.BlockSize%4 != 0 || c.BlockSize&(c.BlockSize-1) != 0 {
		return fmt.Errorf("block size %d is not a power-of-two multiple of 4", c.BlockSize)
	}
	if c.Size%(c.Associativity*c.BlockSize) != 0 {
		return fmt.Errorf("size %d is not a multiple of ways*block (%d)",
			c.Size, c.Associativity*c.BlockSize)
	}
	return nil
}

// CacheStats holds instruction cache statistics.
type CacheStats struct {
	Fetches   uint64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// BackingStore supplies cache lines on a miss.
type BackingStore interface {
	Read(addr uint32, size int) []byte
}

// Cache is a read-only instruction cache using Akita cache components.
// Lines are filled from the backing store on a miss and are never dirty.
type Cache struct {
	config CacheConfig

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	// Line storage, indexed by (setID * associativity + wayID)
	dataStore [][]byte

	stats   CacheStats
	backing BackingStore
}

// NewCache creates an instruction cache in front of backing.
func NewCache(config CacheConfig, backing BackingStore) (*Cache, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	numSets := config.Size / (config.Associativity * config.BlockSize)
	totalBlocks := numSets * config.Associativity

	dataStore := make([][]byte, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]byte, config.BlockSize)
	}

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		backing:   backing,
	}, nil
}

// Config returns the cache configuration.
func (c *Cache) Config() CacheConfig {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() CacheStats {
	return c.stats
}

func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

func (c *Cache) blockAddr(addr uint32) uint64 {
	return uint64(addr) &^ uint64(c.config.BlockSize-1)
}

// Fetch returns the instruction word at addr, filling the line on a miss.
func (c *Cache) Fetch(addr uint32) (uint32, error) {
	if addr&0x3 != 0 {
		return 0, fmt.Errorf("%w at 0x%08X", ErrMisaligned, addr)
	}

	c.stats.Fetches++

	blockAddr := c.blockAddr(addr)
	block := c.directory.Lookup(0, blockAddr)

	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
	} else {
		c.stats.Misses++
		block = c.fill(blockAddr)
	}

	offset := int(uint64(addr) - blockAddr)
	data := c.dataStore[c.blockIndex(block)]

	return uint32(data[offset]) |
		uint32(data[offset+1])<<8 |
		uint32(data[offset+2])<<16 |
		uint32(data[offset+3])<<24, nil
}

// fill loads the line at blockAddr into a victim way.
func (c *Cache) fill(blockAddr uint64) *akitacache.Block {
	victim := c.directory.FindVictim(blockAddr)
	if victim.IsValid {
		c.stats.Evictions++
	}

	line := c.dataStore[c.blockIndex(victim)]
	copy(line, c.backing.Read(uint32(blockAddr), c.config.BlockSize))

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)

	return victim
}

// Invalidate drops the line holding addr, if cached.
func (c *Cache) Invalidate(addr uint32) {
	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block != nil && block.IsValid {
		block.IsValid = false
	}
}

// Flush invalidates every line. Statistics are kept.
func (c *Cache) Flush() {
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			block.IsValid = false
		}
	}
}

// Reset invalidates every line and clears statistics.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = CacheStats{}
}
