// Package vmix implements the frame-generator engine of a multipoint video
// conferencing compositor: it samples live I420 inputs, resolves a tweened
// layout, renders background/regions/overlays/text onto a shared canvas and
// fans the result out to subscribers at harmonically related frame rates.
//
// The package does not touch the network, codecs, or RTP packetization —
// those are the caller's concern. See Compositor for the top-level facade.
package vmix
