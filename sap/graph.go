// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sap

// Cluster groups the constraints acting on the same unordered pair of cliques.
// A constraint on a single clique c belongs to the self cluster (c, c).
type Cluster struct {
	// cliques in the order referenced by the first constraint of the cluster
	cliques      [2]int
	constraints  []int
	numEquations int
}

// Cliques returns the cliques of the cluster, both equal for a self cluster.
func (c *Cluster) Cliques() (first, second int) { return c.cliques[0], c.cliques[1] }

// IsUnary reports whether the cluster is a self cluster.
func (c *Cluster) IsUnary() bool { return c.cliques[0] == c.cliques[1] }

// Constraints returns the problem indices of the constraints in problem order.
func (c *Cluster) Constraints() []int { return c.constraints }

// NumConstraintEquations returns the total number of equations of the cluster.
func (c *Cluster) NumConstraintEquations() int { return c.numEquations }

// ProblemGraph is the graph of a Problem whose nodes are cliques and whose edges
// are clusters of constraints.
//
// The ordering is deterministic: clusters appear in the order their first
// constraint appears in the problem, and participating cliques appear in the order
// first referenced while iterating the clusters.
type ProblemGraph struct {
	clusters      []Cluster
	participating []int
	numEquations  int
}

// NewProblemGraph builds the graph of problem in 𝒪(constraints + cliques).
func NewProblemGraph(problem *Problem) *ProblemGraph {
	if problem == nil {
		panic("nil problem")
	}

	g := new(ProblemGraph)
	index := make(map[[2]int]int)

	for k := 0; k < problem.NumConstraints(); k++ {
		c := problem.Constraint(k)
		first, second := c.FirstClique(), c.FirstClique()
		if c.NumCliques() == 2 {
			second = c.SecondClique()
		}

		key := [2]int{min(first, second), max(first, second)}
		e, ok := index[key]
		if !ok {
			e = len(g.clusters)
			index[key] = e
			g.clusters = append(g.clusters, Cluster{cliques: [2]int{first, second}})
		}

		ne := c.NumConstraintEquations()
		cluster := &g.clusters[e]
		cluster.constraints = append(cluster.constraints, k)
		cluster.numEquations += ne
		g.numEquations += ne
	}

	seen := make([]bool, problem.NumCliques())
	for e := range g.clusters {
		for _, c := range g.clusters[e].cliques {
			if !seen[c] {
				seen[c] = true
				g.participating = append(g.participating, c)
			}
		}
	}

	return g
}

// NumClusters returns the number of clusters.
func (g *ProblemGraph) NumClusters() int { return len(g.clusters) }

// Cluster returns the k-th cluster.
func (g *ProblemGraph) Cluster(k int) *Cluster { return &g.clusters[k] }

// ParticipatingCliques returns the cliques referenced by at least one constraint.
func (g *ProblemGraph) ParticipatingCliques() []int { return g.participating }

// NumConstraintEquations returns the total number of equations over all clusters.
func (g *ProblemGraph) NumConstraintEquations() int { return g.numEquations }
