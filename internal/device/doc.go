// Package device connects grid assignments to physical lighting hardware.
//
// # Architecture
//
//	┌──────────────┐  colors_updated  ┌──────────────┐  Apply   ┌──────────────┐
//	│ effect.Engine│ ───────────────▶ │  Dispatcher  │ ───────▶ │   Manager    │
//	└──────────────┘    (Notify)      │ (changed     │          │ (index check │
//	                                  │  colours only)│          │  last error  │
//	                                  └──────────────┘          │  panics)     │
//	                                                            └──────┬───────┘
//	                                                                   │ Controller
//	                                                                   ▼
//	                                                            ┌──────────────┐
//	                                                            │BusController │──▶ MQTT
//	                                                            └──────────────┘
//
// # Key Types
//
//   - Controller: the device-control facade (counts, names, colour writes)
//   - Manager: validates indices against a Controller and turns failures
//     and panics into a false result, a last-error string and an event
//   - BusController: Controller backed by a static Inventory that publishes
//     colour commands to protocol bridges over MQTT
//   - Dispatcher: pushes changed assignment colours to the Manager on its
//     own goroutine so slow hardware never stalls the effect engine
//
// # Usage
//
//	ctrl := device.NewBusController(inventory, mqttClient)
//	mgr := device.NewManager(ctrl)
//	disp := device.NewDispatcher(grid, mgr)
//	engine.Subscribe(func(ev effect.Event) {
//	    if ev.Type == effect.EventColorsUpdated {
//	        disp.Notify()
//	    }
//	})
//	go disp.Run(ctx)
package device
