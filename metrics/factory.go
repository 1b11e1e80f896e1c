// Package metrics provides a Prometheus metric factory (grounded on the teacher's
// base.MetricFactory) plus the concrete counters/gauges the logging core reports: queue depth,
// dropped/processed/delivered counts, pool size/peak/capacity, per-sink error counts and
// hazard-domain retired/reclaimed counts.
package metrics

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promext"
)

// Factory manages a namespaced set of Prometheus collectors, deduplicating by full metric name so
// repeated AddOrGet calls for the same name return the same curried vector.
type Factory struct {
	namePrefix        string
	parentLabelNames  []string
	parentLabelValues []string
	registryLock      *sync.Mutex
	registry          map[string]prometheus.Collector
}

// NewFactory creates a factory with prefix for metric names and fixed labels applied to every
// metric it creates.
func NewFactory(prefix string, labelNames []string, labelValues []string) *Factory {
	if len(labelNames) != len(labelValues) {
		logger.Panicf("different len of labelNames (%s) and labelValues (%s)",
			strings.Join(labelNames, ","), strings.Join(labelValues, ","))
	}
	return &Factory{
		namePrefix:        prefix,
		parentLabelNames:  labelNames,
		parentLabelValues: labelValues,
		registryLock:      &sync.Mutex{},
		registry:          make(map[string]prometheus.Collector, 64),
	}
}

// NewSubFactory creates a sub-factory inheriting the parent's prefix and fixed labels, with more
// of each appended.
func (f *Factory) NewSubFactory(prefix string, labelNames []string, labelValues []string) *Factory {
	fullPrefix, allNames, allValues := f.concatNameAndLabels(prefix, labelNames, labelValues)
	return &Factory{
		namePrefix:        fullPrefix,
		parentLabelNames:  allNames,
		parentLabelValues: allValues,
		registryLock:      f.registryLock,
		registry:          f.registry,
	}
}

// AddOrGetCounter adds or gets a zero-dimension counter.
func (f *Factory) AddOrGetCounter(name, help string, labelNames, labelValues []string) promext.RWCounter {
	return f.AddOrGetCounterVec(name, help, labelNames, labelValues).WithLabelValues()
}

// AddOrGetCounterVec adds or gets a counter-vec curried with leftmostLabelValues.
func (f *Factory) AddOrGetCounterVec(name, help string, labelNames, leftmostLabelValues []string) *promext.RWCounterVec {
	fullName, allNames, allValues := f.concatNameAndLabels(name, labelNames, leftmostLabelValues)

	f.registryLock.Lock()
	var vec *promext.RWCounterVec
	if existing, ok := f.registry[fullName]; ok {
		vec = existing.(*promext.RWCounterVec)
	} else {
		opts := prometheus.CounterOpts{Name: fullName, Help: help}
		vec = promext.NewRWCounterVec(opts, allNames)
		f.registry[fullName] = prometheus.Collector(vec)
		if err := prometheus.Register(vec); err != nil {
			logger.Panicf("failed to register counter-vec '%s': %s", fullName, err.Error())
		}
	}
	f.registryLock.Unlock()

	curried, err := vec.CurryWith(buildLabels(allNames, allValues))
	if err != nil {
		logger.Panicf("failed to curry counter-vec '%s': %s", fullName, err.Error())
	}
	return curried
}

// AddOrGetGauge adds or gets a zero-dimension gauge. Gauges are updated via Add/Sub, never Set,
// since multiple goroutines may be updating the same gauge concurrently.
func (f *Factory) AddOrGetGauge(name, help string, labelNames, labelValues []string) promext.RWGauge {
	return f.AddOrGetGaugeVec(name, help, labelNames, labelValues).WithLabelValues()
}

// AddOrGetGaugeVec adds or gets a gauge-vec curried with leftmostLabelValues.
func (f *Factory) AddOrGetGaugeVec(name, help string, labelNames, leftmostLabelValues []string) *promext.RWGaugeVec {
	fullName, allNames, allValues := f.concatNameAndLabels(name, labelNames, leftmostLabelValues)

	f.registryLock.Lock()
	var vec *promext.RWGaugeVec
	if existing, ok := f.registry[fullName]; ok {
		vec = existing.(*promext.RWGaugeVec)
	} else {
		opts := prometheus.GaugeOpts{Name: fullName, Help: help}
		vec = promext.NewRWGaugeVec(opts, allNames)
		f.registry[fullName] = prometheus.Collector(vec)
		if err := prometheus.Register(vec); err != nil {
			logger.Panicf("failed to register gauge-vec '%s': %s", fullName, err.Error())
		}
	}
	f.registryLock.Unlock()

	curried, err := vec.CurryWith(buildLabels(allNames, allValues))
	if err != nil {
		logger.Panicf("failed to curry gauge-vec '%s': %s", fullName, err.Error())
	}
	return curried
}

// DumpMetrics renders every metric under this factory's prefix in the .prom text format, for
// tests.
func (f *Factory) DumpMetrics(includeZeroValues bool) (string, error) {
	gatherer := prometheus.NewPedanticRegistry()
	f.registryLock.Lock()
	for name, vec := range f.registry {
		if !strings.HasPrefix(name, f.namePrefix) {
			continue
		}
		if err := gatherer.Register(vec); err != nil {
			f.registryLock.Unlock()
			return "", fmt.Errorf("failed to add metric '%s' to gatherer: %w", name, err)
		}
	}
	f.registryLock.Unlock()

	families, err := gatherer.Gather()
	if err != nil {
		return "", fmt.Errorf("failed to gather metrics: %w", err)
	}
	buf := &bytes.Buffer{}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(buf, mf); err != nil {
			return "", fmt.Errorf("failed to export '%s': %w", mf.GetName(), err)
		}
	}
	lines := strings.Split(buf.String(), "\n")
	filtered := make([]string, 0, len(lines))
	for _, ln := range lines {
		if strings.HasPrefix(ln, "#") {
			continue
		}
		if !includeZeroValues && strings.HasSuffix(ln, " 0") {
			continue
		}
		filtered = append(filtered, ln)
	}
	return strings.Join(filtered, "\n"), nil
}

// Prefix returns the prefix applied to every metric name created by this factory.
func (f *Factory) Prefix() string {
	return f.namePrefix
}

func (f *Factory) concatNameAndLabels(name string, labelNames, leftmostLabelValues []string) (string, []string, []string) {
	fullName := f.namePrefix + name
	allNames := append(append([]string(nil), f.parentLabelNames...), labelNames...)
	allValues := append(append([]string(nil), f.parentLabelValues...), leftmostLabelValues...)
	return fullName, allNames, allValues
}

func buildLabels(labelNames, leftmostLabelValues []string) map[string]string {
	labels := make(map[string]string, len(leftmostLabelValues))
	for i, value := range leftmostLabelValues {
		labels[labelNames[i]] = value
	}
	return labels
}
