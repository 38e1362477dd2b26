// Package distribution implements the recipe calorie distribution engine.
//
// A Distribution maps each ingredient label to its share of the recipe's
// calories. Adding an ingredient doubles its weight, divides every weight by
// the total measured before the doubling, and classifies the added
// ingredient's new weight. An Overflow classification rebuilds the uniform
// distribution over the same ingredient count.
package distribution

import (
	"sort"
	"strconv"
)

// Ingredient identifies an ingredient inside a recipe. Labels run 1..N.
type Ingredient int

// String returns the decimal label.
func (i Ingredient) String() string { return strconv.Itoa(int(i)) }

// Distribution maps ingredients to their weight.
type Distribution map[Ingredient]float64

// Uniform builds a distribution over ingredients 1..n where every weight is 1/n.
func Uniform(n int) Distribution {
	d := make(Distribution, n)
	w := 1 / float64(n)
	for i := 1; i <= n; i++ {
		d[Ingredient(i)] = w
	}
	return d
}

// Keys returns the ingredients in ascending order.
func (d Distribution) Keys() []Ingredient {
	keys := make([]Ingredient, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Sum adds every weight, in key order so the result is reproducible.
func (d Distribution) Sum() float64 {
	var total float64
	for _, k := range d.Keys() {
		total += d[k]
	}
	return total
}

// Clone returns an independent copy.
func (d Distribution) Clone() Distribution {
	if d == nil {
		return nil
	}
	c := make(Distribution, len(d))
	for k, v := range d {
		c[k] = v
	}
	return c
}
