package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlacementDeterministic(t *testing.T) {
	key := "CAL-IRVI-14631DeerPark"
	for n := 2; n <= 8; n++ {
		primary := PrimaryShard(key, n)
		replica := ReplicaShard(key, n, primary)
		for i := 0; i < 50; i++ {
			assert.Equal(t, primary, PrimaryShard(key, n))
			assert.Equal(t, replica, ReplicaShard(key, n, primary))
		}
	}
}

func TestPrimaryAndReplicaAlwaysDistinct(t *testing.T) {
	for n := 2; n <= 8; n++ {
		t.Run(fmt.Sprintf("Shards%d", n), func(t *testing.T) {
			for i := 0; i < 1000; i++ {
				key := fmt.Sprintf("STA-CITY-%dMainSt", i)
				primary := PrimaryShard(key, n)
				replica := ReplicaShard(key, n, primary)

				require.GreaterOrEqual(t, primary, 0)
				require.Less(t, primary, n)
				require.GreaterOrEqual(t, replica, 0)
				require.Less(t, replica, n)
				require.NotEqual(t, primary, replica, "key %s landed on one shard twice", key)
			}
		})
	}
}

// TestPlacementDistribution checks that hashing spreads keys reasonably
// evenly. No shard should hold less than half of its fair share.
func TestPlacementDistribution(t *testing.T) {
	const shardCount = 4
	const keys = 4000

	counts := make([]int, shardCount)
	for i := 0; i < keys; i++ {
		key := DeriveKey("California", fmt.Sprintf("City%d", i), fmt.Sprintf("%d Main St", i))
		counts[PrimaryShard(key, shardCount)]++
	}

	fairShare := keys / shardCount
	for shard, count := range counts {
		assert.Greater(t, count, fairShare/2, "shard %d underloaded: %d of %d keys", shard, count, keys)
	}
}
