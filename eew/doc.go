// Package eew simulates the real-time behavior of a Japan-style Earthquake
// Early Warning pipeline: given one or more hypocenters, it advances a
// virtual clock and determines which observation stations have been reached
// by the P- and S-wave fronts, what ground-motion intensity each station
// registers, how those values aggregate into regional intensities, and how
// an initially noisy hypocenter/magnitude estimate converges toward truth.
package eew
