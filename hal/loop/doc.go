// Package loop provides an in-memory loopback implementation of the HAL
// contracts.
//
// The loopback [Device] emulates a USB device without hardware: data queued
// with Feed is returned by reads from IN endpoints, and data written to OUT
// endpoints accumulates for inspection with Written. Primitive calls can be
// scripted to fail with specific transport status codes, which makes the
// package suitable for exercising pipe failure paths in tests.
//
// # Example
//
//	dev := loop.NewDevice()
//	dev.Feed(0x81, []byte("pong"))
//
//	p := pipe.New(dev, hal.EndpointDescriptor{
//	    Address:       0x81,
//	    Attributes:    0x02, // bulk
//	    MaxPacketSize: 64,
//	}, pipe.Config{})
//
// All methods are safe for concurrent use.
package loop
