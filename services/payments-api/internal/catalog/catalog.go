// Package catalog holds the fixed service offering sold by the marketing
// sites. Prices are in major currency units; orders store minor units.
package catalog

type Service struct {
	ID       string
	Name     string
	Price    int64 // major units
	Currency string
}

var services = map[string]Service{
	"s1": {ID: "s1", Name: "Custom AI-Powered Niche Site", Price: 8000, Currency: "ZAR"},
	"s2": {ID: "s2", Name: "30 AI-Generated Articles", Price: 5000, Currency: "ZAR"},
	"s3": {ID: "s3", Name: "Full Automation Setup", Price: 15000, Currency: "ZAR"},
	"s4": {ID: "s4", Name: "Strategy Consulting (1 Hour)", Price: 800, Currency: "ZAR"},
}

// Lookup returns the service for id, or false when unknown.
func Lookup(id string) (Service, bool) {
	svc, ok := services[id]
	return svc, ok
}

// TotalMinorUnits is the full price of the service in minor currency units.
func (s Service) TotalMinorUnits() int64 {
	return s.Price * 100
}

// DepositMinorUnits applies the 50% up-front deposit policy with round-half-up
// on integer minor units, so deposit + remainder always equals the total with
// no floating-point drift.
func DepositMinorUnits(totalMinorUnits int64) int64 {
	return (totalMinorUnits + 1) / 2
}
