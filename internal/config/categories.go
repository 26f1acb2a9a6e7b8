package config

// DefaultCategories returns the category listing pages crawled each cycle.
// Paths are relative to the base URL and ordered roughly by traffic.
func DefaultCategories() []string {
	return []string{
		// Main categories
		"oven-parts.html",
		"refrigerator-parts.html",
		"dishwasher-parts.html",
		"washer-parts.html",
		"dryer-parts.html",
		"microwave-parts.html",
		"range-hood-parts.html",
		"freezer-parts.html",
		"garbage-disposal-parts.html",
		"ice-maker-parts.html",
		"water-heater-parts.html",
		"air-conditioner-parts.html",

		// Refrigerator specific parts
		"water-filters.html",
		"refrigerator-door-seals.html",
		"refrigerator-shelves.html",
		"refrigerator-drawers.html",
		"refrigerator-compressors.html",
		"refrigerator-fans.html",
		"refrigerator-thermostats.html",
		"refrigerator-control-boards.html",
		"refrigerator-door-handles.html",
		"refrigerator-light-bulbs.html",
		"refrigerator-water-lines.html",

		// Washer specific parts
		"washer-pumps.html",
		"washer-belts.html",
		"washer-agitators.html",
		"washer-door-seals.html",
		"washer-control-boards.html",
		"washer-motors.html",
		"washer-suspension-rods.html",
		"washer-water-valves.html",
		"washer-lid-switches.html",
		"washer-timers.html",
		"washer-drain-hoses.html",

		// Dryer specific parts
		"dryer-belts.html",
		"dryer-heating-elements.html",
		"dryer-thermostats.html",
		"dryer-motors.html",
		"dryer-drums.html",
		"dryer-lint-filters.html",
		"dryer-door-seals.html",
		"dryer-control-boards.html",
		"dryer-rollers.html",
		"dryer-fuses.html",
		"dryer-vents.html",

		// Dishwasher specific parts
		"dishwasher-pumps.html",
		"dishwasher-spray-arms.html",
		"dishwasher-door-seals.html",
		"dishwasher-racks.html",
		"dishwasher-control-boards.html",
		"dishwasher-motors.html",
		"dishwasher-door-latches.html",
		"dishwasher-water-valves.html",
		"dishwasher-silverware-baskets.html",
		"dishwasher-wheels.html",
		"dishwasher-detergent-dispensers.html",

		// Oven/range specific parts
		"oven-heating-elements.html",
		"oven-igniters.html",
		"oven-thermostats.html",
		"oven-door-seals.html",
		"oven-control-boards.html",
		"oven-knobs.html",
		"oven-racks.html",
		"oven-light-bulbs.html",
		"oven-door-hinges.html",
		"range-burners.html",
		"range-grates.html",
		"range-surface-elements.html",

		// Microwave specific parts
		"microwave-turntables.html",
		"microwave-door-handles.html",
		"microwave-magnetrons.html",
		"microwave-diodes.html",
		"microwave-capacitors.html",
		"microwave-door-switches.html",
		"microwave-control-boards.html",
		"microwave-light-bulbs.html",
		"microwave-fuses.html",
		"microwave-waveguide-covers.html",

		// Common replacement parts
		"control-boards.html",
		"motors.html",
		"pumps.html",
		"belts.html",
		"door-seals.html",
		"heating-elements.html",
		"thermostats.html",
		"knobs-and-handles.html",
		"light-bulbs.html",
		"fuses.html",
		"valves.html",
		"switches.html",
		"capacitors.html",
		"fan-blades.html",
	}
}
