package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// carMutations counts successful writes to car records by operation.
	carMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "driveops_car_mutations_total",
			Help: "Successful car record writes by operation.",
		},
		[]string{"op"},
	)

	// validationFailures counts rejected submissions by offending field.
	validationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "driveops_validation_failures_total",
			Help: "Car submissions rejected by validation, by field.",
		},
		[]string{"field"},
	)
)

func init() {
	prometheus.MustRegister(carMutations, validationFailures)
}
