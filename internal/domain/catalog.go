package domain

// Option lists offered to clients for the enumerated car attributes. The
// store accepts any string; these lists only seed pickers and facets.
var (
	BodyTypes = []string{
		"Sedan", "SUV", "Hatchback", "Coupe", "Convertible",
		"Wagon", "Van", "Minivan", "Truck", "Crossover",
	}

	Transmissions = []string{
		"Automatic", "Manual", "Semi-Automatic", "CVT", "Dual-Clutch",
	}

	FuelTypes = []string{
		"Petrol", "Diesel", "Hybrid", "Electric", "Plug-in Hybrid",
		"Hydrogen", "Natural Gas", "Biodiesel",
	}

	// FeatureCatalog is the suggested equipment list; arbitrary features are
	// still accepted.
	FeatureCatalog = []string{
		"Air Conditioning", "Bluetooth", "Cruise Control", "Navigation",
		"Leather Seats", "Sunroof", "Heated Seats", "Backup Camera",
		"Parking Sensors", "Keyless Entry", "Remote Start", "Apple CarPlay",
		"Android Auto", "Premium Sound System", "Lane Departure Warning",
		"Blind Spot Monitoring", "Adaptive Cruise Control",
	}
)

// Service types accepted for maintenance records.
const (
	ServiceMaintenance = "maintenance"
	ServiceRepair      = "repair"
	ServiceInspection  = "inspection"
	ServiceUpgrade     = "upgrade"
	ServiceOther       = "other"
)

// ValidServiceType reports whether s is one of the accepted service types.
func ValidServiceType(s string) bool {
	switch s {
	case ServiceMaintenance, ServiceRepair, ServiceInspection, ServiceUpgrade, ServiceOther:
		return true
	}
	return false
}
