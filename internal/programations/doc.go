// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package programations talks to the CMS that stores the station's broadcast
// schedule: it lists programation records and flips their on-air flag.
package programations
