package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var driveCommandsTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "rover_drive_commands_total",
		Help: "Total number of drive commands applied to the motors, by source.",
	},
	[]string{"source"},
)

var driveCommandsRejectedTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "rover_drive_commands_rejected_total",
		Help: "Total number of drive or arm commands rejected before reaching hardware, by reason.",
	},
	[]string{"reason"},
)

var watchdogTripsTotal = promauto.With(prometheus.DefaultRegisterer).NewCounter(
	prometheus.CounterOpts{
		Name: "rover_watchdog_trips_total",
		Help: "Total number of forced motor stops issued by the command watchdog " +
			"(operator link lost or operator stopped sending commands).",
	},
)

var armJointClampedTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "rover_arm_joint_clamped_total",
		Help: "Total number of arm moves truncated at a joint limit, by joint index.",
	},
	[]string{"joint"},
)

var sinkErrorsTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "rover_sink_errors_total",
		Help: "Total number of failed writes to motor or servo hardware, by sink.",
	},
	[]string{"sink"},
)

var componentUp = promauto.With(prometheus.DefaultRegisterer).NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "rover_component_up",
		Help: "Whether the last health ping of a component succeeded (1) or failed (0).",
	},
	[]string{"component"},
)

var mqttMessagesTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "rover_mqtt_messages_total",
		Help: "Total number of MQTT command messages received, by topic and result.",
	},
	[]string{"topic", "result"},
)

// RecordDriveCommand increments the applied drive command counter for source.
func RecordDriveCommand(source string) {
	driveCommandsTotal.WithLabelValues(source).Inc()
}

// RecordCommandRejected increments the rejected command counter.
func RecordCommandRejected(reason string) {
	driveCommandsRejectedTotal.WithLabelValues(reason).Inc()
}

// RecordWatchdogTrip increments the watchdog trip counter.
func RecordWatchdogTrip() {
	watchdogTripsTotal.Inc()
}

// RecordJointClamped increments the clamp counter for the given joint.
func RecordJointClamped(joint int) {
	armJointClampedTotal.WithLabelValues(strconv.Itoa(joint)).Inc()
}

// RecordSinkError increments the hardware write failure counter for sink.
func RecordSinkError(sink string) {
	sinkErrorsTotal.WithLabelValues(sink).Inc()
}

// RecordComponentUp sets the health gauge of component.
func RecordComponentUp(component string, up bool) {
	value := 0.0
	if up {
		value = 1
	}

	componentUp.WithLabelValues(component).Set(value)
}

// RecordMQTTMessage counts one received MQTT message.
func RecordMQTTMessage(topic, result string) {
	mqttMessagesTotal.WithLabelValues(topic, result).Inc()
}

