// Package graphstore exports connectivity graphs to Neo4j so they can be
// inspected with Cypher. Each dot becomes a Dot node keyed by circuit name and
// dot index; each edge becomes a WIRE relationship from its start dot to its
// end dot.
package graphstore

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/saulfrancisco-ruizacevedo/gocypher"

	"voxelcircuit.ai/internal/graph"
)

const (
	DotLabel = "Dot"
	WireType = "WIRE"
)

// DBRunner executes one Cypher query and buffers its result.
type DBRunner interface {
	Run(ctx context.Context, query string, params map[string]interface{}) (*neo4j.EagerResult, error)
}

// Neo4jExecutor is a DBRunner backed by the official driver.
type Neo4jExecutor struct {
	Driver neo4j.DriverWithContext
	DBName string
}

func NewNeo4jExecutor(uri, username, password, dbName string) (*Neo4jExecutor, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	return &Neo4jExecutor{Driver: driver, DBName: dbName}, nil
}

func (e *Neo4jExecutor) Verify(ctx context.Context) error {
	return e.Driver.VerifyConnectivity(ctx)
}

func (e *Neo4jExecutor) Close(ctx context.Context) error {
	return e.Driver.Close(ctx)
}

func (e *Neo4jExecutor) Run(ctx context.Context, query string, params map[string]interface{}) (*neo4j.EagerResult, error) {
	res, err := neo4j.ExecuteQuery(ctx, e.Driver, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(e.DBName),
	)
	if err != nil {
		return nil, fmt.Errorf("neo4j query: %w", err)
	}
	return res, nil
}

type Exporter struct {
	Runner DBRunner
}

// Export replaces whatever graph was stored under circuitName with g.
func (x Exporter) Export(ctx context.Context, circuitName string, g *graph.Graph) error {
	if circuitName == "" {
		return fmt.Errorf("graphstore: empty circuit name")
	}
	if err := x.clear(ctx, circuitName); err != nil {
		return err
	}
	for i, d := range g.Dots {
		if err := x.mergeDot(ctx, circuitName, i, d); err != nil {
			return fmt.Errorf("dot %d: %w", i, err)
		}
	}
	for i, e := range g.Edges {
		if err := x.createWire(ctx, circuitName, e); err != nil {
			return fmt.Errorf("edge %d: %w", i, err)
		}
	}
	return nil
}

func (x Exporter) clear(ctx context.Context, circuitName string) error {
	return x.run(ctx, gocypher.NewQueryBuilder().
		Match(gocypher.N("n", DotLabel).WithProperties(map[string]interface{}{"circuit": circuitName})).
		DetachDelete("n"))
}

func (x Exporter) mergeDot(ctx context.Context, circuitName string, idx int, d graph.Dot) error {
	key := map[string]interface{}{"circuit": circuitName, "index": idx}
	return x.run(ctx, gocypher.NewQueryBuilder().
		Merge(gocypher.N("n", DotLabel).WithProperties(key)).
		Set(map[string]interface{}{
			"n.x":    d.Pos.X,
			"n.y":    d.Pos.Y,
			"n.z":    d.Pos.Z,
			"n.kind": d.Kind.String(),
		}).
		Return("n"))
}

func (x Exporter) createWire(ctx context.Context, circuitName string, e graph.Edge) error {
	props := map[string]interface{}{
		"length":     e.Length,
		"direction":  e.Direction.String(),
		"amplifiers": len(e.Amplifiers),
	}
	if e.Wire != "" {
		props["wire"] = e.Wire
	}
	return x.run(ctx, gocypher.NewQueryBuilder().
		Match(gocypher.N("a", DotLabel).WithProperties(map[string]interface{}{"circuit": circuitName, "index": e.Start})).
		Match(gocypher.N("b", DotLabel).WithProperties(map[string]interface{}{"circuit": circuitName, "index": e.End})).
		Create(
			gocypher.NRef("a"),
			gocypher.R("r", WireType).To().WithProperties(props),
			gocypher.NRef("b"),
		))
}

func (x Exporter) run(ctx context.Context, qb *gocypher.QueryBuilder) error {
	query, params, err := qb.Build()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	_, err = x.Runner.Run(ctx, query, params)
	return err
}
