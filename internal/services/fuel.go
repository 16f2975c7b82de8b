package services

import (
	"fmt"
	"trip-route-service/internal/domain"
)

// FuelModifiers is the consumption in liters per 100 km for each mode the
// trip logger can cost.
var FuelModifiers = map[domain.TransportMode]float64{
	domain.ModeCar:        8.2,
	domain.ModeTruck:      13.2,
	domain.ModeTaxi:       7.8,
	domain.ModeBus:        11.5,
	domain.ModePrivateBus: 10.7,
}

// FuelUsed returns liters burned over distanceMeters.
func FuelUsed(distanceMeters float64, mode domain.TransportMode) (float64, error) {
	modifier, ok := FuelModifiers[mode]
	if !ok {
		return 0, domain.NewError(domain.KindInvalidRequest, "", "invalid transport mode", fmt.Errorf("no fuel modifier for %q", mode))
	}
	return distanceMeters / 100000 * modifier, nil
}
