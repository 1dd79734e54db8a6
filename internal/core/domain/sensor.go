package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE      = "bridge"
	SENSOR_ID_CHARGER_PRESENCE  = "charger_presence"
	SENSOR_ID_CHARGER_ERROR     = "charger_error"
	SENSOR_ID_TEMP_SHUTDOWN     = "temp_shutdown"
	SENSOR_ID_TEMP_POWER_REDUCE = "temp_power_reduce"
	SENSOR_ID_TEMP_FANS_ON      = "temp_fans_on"
	SENSOR_ID_FANS_OFF_TIME     = "fans_off_time"
	SENSOR_ID_BRIGHTNESS        = "lcd_brightness"
	SENSOR_ID_CONTRAST          = "lcd_contrast"
	SENSOR_ID_CASE_FAN          = "case_fan"
	SWITCH_ID_TEMP_UNIT_CELSIUS = "temp_unit_celsius"
	INPUT_NUMBER_ID_CELL_LIMIT  = "cell_limit"
	STATE_CLASS_MEASUREMENT     = "measurement"
	DEVICE_CLASS_TEMPERATURE    = "temperature"
	DEVICE_CLASS_DURATION       = "duration"
	DEVICE_CLASS_CONNECTIVITY   = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC     = "diagnostic"
	ENTITY_CLASS_CONFIG         = "config"
	SENSOR_TYPE_SENSOR          = "sensor"
	SENSOR_TYPE_BINARY          = "binary_sensor"
	INPUT_NUMBER_MODE_BOX       = "box"
	INPUT_NUMBER_MODE_SLIDER    = "slider"

	MAX_CELL_LIMIT = 10
)

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("icharger_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "ACasal",
		Model:        "iCharger2MQTT",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("iCharger bridge %s", md5HashShort(baseTopic)),
	}
}

func ChargerDevice(config ChargerConfig) Device {
	return Device{
		Id:           fmt.Sprintf("icharger_%s", md5HashShort(config.HostName())),
		Manufacturer: "Junsi",
		Model:        "iCharger",
		Name:         fmt.Sprintf("iCharger %s", config.HostName()),
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {
	return []GenericSensor{{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	}}
}

func ChargerSensors(chargerDevice Device) []GenericSensor {

	var sensors []GenericSensor

	// Charger presence
	sensors = append(sensors, GenericSensor{
		Device:      chargerDevice,
		Id:          SENSOR_ID_CHARGER_PRESENCE,
		SensorType:  SENSOR_TYPE_BINARY,
		Name:        "Charger presence",
		DeviceClass: DEVICE_CLASS_CONNECTIVITY,
		UniqueId:    uniqueId(chargerDevice.Id, SENSOR_ID_CHARGER_PRESENCE),
	})

	// Last connection error
	sensors = append(sensors, GenericSensor{
		Device:           chargerDevice,
		Id:               SENSOR_ID_CHARGER_ERROR,
		SensorType:       SENSOR_TYPE_SENSOR,
		Name:             "Charger error",
		EntityCategory:   ENTITY_CLASS_DIAGNOSTIC,
		EnabledByDefault: optionalBool(false),
		Icon:             "mdi:alert-circle-outline",
		UniqueId:         uniqueId(chargerDevice.Id, SENSOR_ID_CHARGER_ERROR),
	})

	return sensors
}

// SystemSensors describes the system settings of the charger. Temperatures
// use the unit the charger is configured with.
func SystemSensors(chargerDevice Device, sys *System) []GenericSensor {

	var sensors []GenericSensor
	units := sys.UnitsOfMeasure()

	temperature := func(id, name string) GenericSensor {
		return GenericSensor{
			Device:            chargerDevice,
			Id:                id,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              name,
			StateClass:        STATE_CLASS_MEASUREMENT,
			DeviceClass:       DEVICE_CLASS_TEMPERATURE,
			EntityCategory:    ENTITY_CLASS_DIAGNOSTIC,
			UnitOfMeasurement: units,
			UniqueId:          uniqueId(chargerDevice.Id, id),
		}
	}

	sensors = append(sensors,
		temperature(SENSOR_ID_TEMP_SHUTDOWN, "Shutdown temperature"),
		temperature(SENSOR_ID_TEMP_POWER_REDUCE, "Power reduce temperature"),
	)

	if sys.HasCaseFan() {
		sensors = append(sensors, temperature(SENSOR_ID_TEMP_FANS_ON, "Fans on temperature"))

		// Fans off delay
		sensors = append(sensors, GenericSensor{
			Device:            chargerDevice,
			Id:                SENSOR_ID_FANS_OFF_TIME,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              "Fans off delay",
			DeviceClass:       DEVICE_CLASS_DURATION,
			EntityCategory:    ENTITY_CLASS_DIAGNOSTIC,
			UnitOfMeasurement: "min",
			Icon:              "mdi:fan-clock",
			UniqueId:          uniqueId(chargerDevice.Id, SENSOR_ID_FANS_OFF_TIME),
		})

		// Case fan
		sensors = append(sensors, GenericSensor{
			Device:         chargerDevice,
			Id:             SENSOR_ID_CASE_FAN,
			SensorType:     SENSOR_TYPE_BINARY,
			Name:           "Case fan",
			EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
			Icon:           "mdi:fan",
			UniqueId:       uniqueId(chargerDevice.Id, SENSOR_ID_CASE_FAN),
		})
	}

	// Display
	sensors = append(sensors, GenericSensor{
		Device:         chargerDevice,
		Id:             SENSOR_ID_BRIGHTNESS,
		SensorType:     SENSOR_TYPE_SENSOR,
		Name:           "Display brightness",
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		Icon:           "mdi:brightness-6",
		UniqueId:       uniqueId(chargerDevice.Id, SENSOR_ID_BRIGHTNESS),
	})
	sensors = append(sensors, GenericSensor{
		Device:         chargerDevice,
		Id:             SENSOR_ID_CONTRAST,
		SensorType:     SENSOR_TYPE_SENSOR,
		Name:           "Display contrast",
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		Icon:           "mdi:contrast-box",
		UniqueId:       uniqueId(chargerDevice.Id, SENSOR_ID_CONTRAST),
	})

	return sensors
}

func ChargerSwitches(chargerDevice Device) []GenericSwitch {
	return []GenericSwitch{{
		Device:         chargerDevice,
		Id:             SWITCH_ID_TEMP_UNIT_CELSIUS,
		Name:           "Temperature in Celsius",
		EntityCategory: ENTITY_CLASS_CONFIG,
		Icon:           "mdi:temperature-celsius",
		UniqueId:       uniqueId(chargerDevice.Id, SWITCH_ID_TEMP_UNIT_CELSIUS),
	}}
}

func ChargerInputNumbers(chargerDevice Device, cellLimit int) []GenericInputNumber {
	return []GenericInputNumber{{
		Device:            chargerDevice,
		Id:                INPUT_NUMBER_ID_CELL_LIMIT,
		Name:              "Cell limit",
		EntityCategory:    ENTITY_CLASS_CONFIG,
		UnitOfMeasurement: "cells",
		Icon:              "mdi:battery-outline",
		Min:               0,
		Max:               MAX_CELL_LIMIT,
		Step:              1,
		Mode:              INPUT_NUMBER_MODE_BOX,
		InitialValue:      float64(cellLimit),
		UniqueId:          uniqueId(chargerDevice.Id, INPUT_NUMBER_ID_CELL_LIMIT),
	}}
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}

func optionalBool(value bool) *bool {
	return &value
}
