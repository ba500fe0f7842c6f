package uid

import (
	"errors"
	"fmt"
	"hash/fnv"
	"os"

	"github.com/bwmarrin/snowflake"
)

// ErrInvalidNode is returned when the node number does not fit the snowflake layout.
var ErrInvalidNode = errors.New("uid: snowflake node out of range")

// Snowflake implements NumberID with github.com/bwmarrin/snowflake.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake builds a generator for node. A negative node derives one
// from the hostname so replicas do not collide by default.
func NewSnowflake(node int64) (*Snowflake, error) {
	maxNode := int64(-1 ^ (-1 << snowflake.NodeBits))
	if node < 0 {
		node = hostnameNode(maxNode)
	}
	if node > maxNode {
		return nil, fmt.Errorf("%w: %d > %d", ErrInvalidNode, node, maxNode)
	}

	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: n}, nil
}

// Generate returns the next id.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}

func hostnameNode(maxNode int64) int64 {
	host, err := os.Hostname()
	if err != nil {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(host))
	return int64(h.Sum32()) % (maxNode + 1)
}
