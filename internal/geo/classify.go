package geo

import (
	"fmt"
	"math"
	"math/rand"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/LiubovD/thrird-chapter-workflow/internal/raster"
)

// kmeansSeed fixes the clustering RNG so runs over the same raster are
// reproducible.
const kmeansSeed = 1

// maxClusterSamples caps the number of cells used to derive the signature.
const maxClusterSamples = 100000

// kmeansIterations bounds the Lloyd refinement loop.
const kmeansIterations = 25

// featureDim returns the dimensionality of the clustering feature space.
func featureDim(d *raster.Dataset) int {
	if d.BandCount >= 3 {
		// Lab triple for the first three bands plus any extras.
		return 3 + (d.BandCount - 3)
	}
	return d.BandCount
}

// featureVector maps a cell into the clustering feature space.
//
// Datasets with three or more bands treat the first three as RGB and convert
// them to CIE Lab so cluster distances are perceptual rather than raw
// intensity gaps; remaining bands are appended on a comparable 0..100 scale.
// One- and two-band datasets cluster on raw values.
func featureVector(d *raster.Dataset, x, y int, out []float64) []float64 {
	if d.BandCount >= 3 {
		r, _ := d.Value(1, x, y)
		g, _ := d.Value(2, x, y)
		b, _ := d.Value(3, x, y)
		l, la, lb := colorful.Color{R: r / 255, G: g / 255, B: b / 255}.Lab()
		out = append(out, l*100, la*100, lb*100)
		for band := 4; band <= d.BandCount; band++ {
			v, _ := d.Value(band, x, y)
			out = append(out, v/255*100)
		}
		return out
	}
	for band := 1; band <= d.BandCount; band++ {
		v, _ := d.Value(band, x, y)
		out = append(out, v)
	}
	return out
}

// IsoCluster derives a cluster signature with exactly classes clusters using
// k-means over a sample of the valid cells.
func (e *Local) IsoCluster(ctx *Context, d *raster.Dataset, classes int) (*Signature, error) {
	if classes < 2 {
		return nil, fmt.Errorf("class count %d: need at least 2 classes", classes)
	}

	samples := sampleFeatures(d)
	if len(samples) < classes {
		return nil, fmt.Errorf("only %d valid cells for %d classes", len(samples), classes)
	}
	if distinct := countDistinct(samples, classes); distinct < classes {
		return nil, fmt.Errorf("degenerate input: %d distinct pixel signatures for %d classes", distinct, classes)
	}

	rng := rand.New(rand.NewSource(kmeansSeed))
	means := seedMeans(samples, classes, rng)

	assign := make([]int, len(samples))
	for iter := 0; iter < kmeansIterations; iter++ {
		changed := false
		for i, s := range samples {
			k := nearestMean(s, means)
			if assign[i] != k {
				assign[i] = k
				changed = true
			}
		}

		counts := make([]int, classes)
		next := make([][]float64, classes)
		for k := range next {
			next[k] = make([]float64, len(means[0]))
		}
		for i, s := range samples {
			k := assign[i]
			counts[k]++
			for j, v := range s {
				next[k][j] += v
			}
		}
		for k := range next {
			if counts[k] == 0 {
				// Reseed an empty cluster on the sample farthest from its mean.
				next[k] = append([]float64(nil), samples[farthestSample(samples, assign, means)]...)
				changed = true
				continue
			}
			for j := range next[k] {
				next[k][j] /= float64(counts[k])
			}
		}
		means = next
		if !changed {
			break
		}
	}

	// Final assignment under the converged means, then per-cluster covariance.
	groups := make([][][]float64, classes)
	for _, s := range samples {
		k := nearestMean(s, means)
		groups[k] = append(groups[k], s)
	}

	sig := &Signature{Classes: classes, Means: means, Covariances: make([]*mat.SymDense, classes)}
	dim := len(means[0])
	for k := range groups {
		sig.Covariances[k] = clusterCovariance(groups[k], dim)
	}
	return sig, nil
}

// clusterCovariance estimates a regularized covariance matrix for one
// cluster. Clusters too small for estimation get a spherical fallback.
func clusterCovariance(group [][]float64, dim int) *mat.SymDense {
	cov := mat.NewSymDense(dim, nil)
	if len(group) > dim {
		flat := make([]float64, 0, len(group)*dim)
		for _, s := range group {
			flat = append(flat, s...)
		}
		stat.CovarianceMatrix(cov, mat.NewDense(len(group), dim, flat), nil)
	} else {
		for i := 0; i < dim; i++ {
			cov.SetSym(i, i, 1)
		}
	}
	// Ridge keeps uniform clusters from producing a singular Gaussian.
	for i := 0; i < dim; i++ {
		cov.SetSym(i, i, cov.At(i, i)+1e-6)
	}
	return cov
}

// MLClassify assigns every valid cell its most probable class under the
// signature's per-cluster Gaussians, yielding labels in [1, sig.Classes].
func (e *Local) MLClassify(ctx *Context, d *raster.Dataset, sig *Signature) (*raster.Dataset, error) {
	normals := make([]*distmv.Normal, sig.Classes)
	for k := 0; k < sig.Classes; k++ {
		cov := sig.Covariances[k]
		n, ok := distmv.NewNormal(sig.Means[k], cov, nil)
		for ridge := 1e-3; !ok && ridge <= 1e3; ridge *= 100 {
			stiff := mat.NewSymDense(cov.SymmetricDim(), nil)
			stiff.CopySym(cov)
			for i := 0; i < stiff.SymmetricDim(); i++ {
				stiff.SetSym(i, i, stiff.At(i, i)+ridge)
			}
			n, ok = distmv.NewNormal(sig.Means[k], stiff, nil)
		}
		if !ok {
			return nil, fmt.Errorf("class %d: cluster covariance is not positive definite", k+1)
		}
		normals[k] = n
	}

	out := d.Shape()
	workers := ctx.Workers
	if workers < 1 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)
	rowsPer := (d.Height + workers - 1) / workers
	for start := 0; start < d.Height; start += rowsPer {
		start := start
		end := start + rowsPer
		if end > d.Height {
			end = d.Height
		}
		g.Go(func() error {
			buf := make([]float64, 0, len(sig.Means[0]))
			for y := start; y < end; y++ {
				for x := 0; x < d.Width; x++ {
					if !d.IsValid(x, y) {
						continue
					}
					buf = featureVector(d, x, y, buf[:0])
					best, bestLL := 0, math.Inf(-1)
					for k, n := range normals {
						if ll := n.LogProb(buf); ll > bestLL {
							best, bestLL = k, ll
						}
					}
					out.Set(1, x, y, float64(best+1))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// sampleFeatures collects feature vectors from the valid cells, striding
// when the raster exceeds the sample cap.
func sampleFeatures(d *raster.Dataset) [][]float64 {
	total := d.ValidCount()
	stride := 1
	if total > maxClusterSamples {
		stride = total/maxClusterSamples + 1
	}

	samples := make([][]float64, 0, total/stride+1)
	i := 0
	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			if !d.IsValid(x, y) {
				continue
			}
			if i%stride == 0 {
				samples = append(samples, featureVector(d, x, y, nil))
			}
			i++
		}
	}
	return samples
}

// countDistinct counts distinct feature vectors up to the requested limit.
func countDistinct(samples [][]float64, limit int) int {
	seen := make(map[string]struct{}, limit)
	for _, s := range samples {
		key := fmt.Sprintf("%.3f", s)
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			if len(seen) >= limit {
				return limit
			}
		}
	}
	return len(seen)
}

// seedMeans picks initial cluster means with k-means++ weighting.
func seedMeans(samples [][]float64, k int, rng *rand.Rand) [][]float64 {
	means := make([][]float64, 0, k)
	means = append(means, append([]float64(nil), samples[rng.Intn(len(samples))]...))

	dists := make([]float64, len(samples))
	for len(means) < k {
		total := 0.0
		for i, s := range samples {
			best := math.Inf(1)
			for _, m := range means {
				if d := sqDist(s, m); d < best {
					best = d
				}
			}
			dists[i] = best
			total += best
		}
		if total == 0 {
			// All remaining samples coincide with existing means.
			means = append(means, append([]float64(nil), samples[rng.Intn(len(samples))]...))
			continue
		}
		target := rng.Float64() * total
		for i, w := range dists {
			target -= w
			if target <= 0 || i == len(samples)-1 {
				means = append(means, append([]float64(nil), samples[i]...))
				break
			}
		}
	}
	return means
}

func nearestMean(s []float64, means [][]float64) int {
	best, bestD := 0, math.Inf(1)
	for k, m := range means {
		if d := sqDist(s, m); d < bestD {
			best, bestD = k, d
		}
	}
	return best
}

func farthestSample(samples [][]float64, assign []int, means [][]float64) int {
	best, bestD := 0, -1.0
	for i, s := range samples {
		if d := sqDist(s, means[assign[i]]); d > bestD {
			best, bestD = i, d
		}
	}
	return best
}

func sqDist(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}
