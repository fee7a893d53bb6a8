// Package engine contains the day loop of the regional epidemic simulation.
//
// The Engine owns the model state. Each day it builds one immutable view of
// the previous day, computes every region from that view and only then
// commits the new compartments, so no region ever observes another region's
// already-updated values.
package engine
