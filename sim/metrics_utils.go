// sim/metrics_utils.go
package sim

import (
	"bufio"
	"fmt"
	"math"
	"os"

	"github.com/sirupsen/logrus"
)

type IntOrFloat64 interface {
	int | int64 | float64
}

// CalculatePercentile returns the p-th percentile of a data series using
// linear interpolation between the two closest ranks.
func CalculatePercentile[T IntOrFloat64](data []T, p float64) float64 {
	n := len(data)
	rank := p / 100.0 * float64(n-1)
	lowerIdx := int(math.Floor(rank))
	upperIdx := int(math.Ceil(rank))

	if lowerIdx == upperIdx {
		return float64(data[lowerIdx])
	}
	lowerVal := data[lowerIdx]
	upperVal := data[upperIdx]
	if upperIdx >= n {
		return float64(data[n-1])
	}
	return float64(lowerVal) + float64(upperVal-lowerVal)*(rank-float64(lowerIdx))
}

// CalculateMean returns the arithmetic mean of a data series.
func CalculateMean[T IntOrFloat64](numbers []T) float64 {
	if len(numbers) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, number := range numbers {
		sum += float64(number)
	}
	return sum / float64(len(numbers))
}

// ILISeries computes the daily influenza-like-illness report count (spec.md's
// derived ILI variable) for one node across every simulated day, for
// downstream surveillance-curve summarization.
func ILISeries(sim *Simulator, node NodeId) ([]float64, error) {
	days := sim.NumTimes()
	series := make([]float64, days)
	for t := 0; t < days; t++ {
		v, err := sim.GetDerived(DerivedILI, t, node, AllStratum)
		if err != nil {
			return nil, err
		}
		series[t] = v
	}
	return series, nil
}

// WriteILISeries writes a node's daily ILI report series to a CSV file, one
// "day,value" line per day, for offline surveillance-curve plotting.
func WriteILISeries(series []float64, fileName string) error {
	file, err := os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating file %s: %w", fileName, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			logrus.Warnf("closing file %s: %v", fileName, closeErr)
		}
	}()

	writer := bufio.NewWriter(file)
	for day, v := range series {
		if _, err := fmt.Fprintf(writer, "%d,%.4f\n", day, v); err != nil {
			return fmt.Errorf("writing ILI series to %s: %w", fileName, err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flushing %s: %w", fileName, err)
	}
	logrus.Debugf("wrote ILI series to %s", fileName)
	return nil
}
