package client

import (
	"context"
	"fmt"
	"time"

	"github.com/luma/lagoon/catalog"
	"github.com/luma/lagoon/protocol"
	"github.com/luma/lagoon/storage"
)

// query sends req and decodes the response into the shared state.
func (c *Client) query(ctx context.Context, req protocol.Message) error {
	resp, err := c.Request(ctx, req)
	if err != nil {
		return err
	}

	if err := catalog.Decode(resp, c.state); err != nil {
		return fmt.Errorf("%s request failed: %w", req.Code, err)
	}

	return nil
}

// command sends req unless building it failed validation, in which case
// nothing is sent.
func (c *Client) command(ctx context.Context, code protocol.Code, req protocol.Message, err error) error {
	if err != nil {
		return fmt.Errorf("%s request failed: %w", code, err)
	}

	return c.query(ctx, req)
}

func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Request(ctx, catalog.PingRequest())
	return err
}

// Version asks the gateway for its firmware version.
func (c *Client) Version(ctx context.Context) (string, error) {
	resp, err := c.Request(ctx, catalog.VersionRequest())
	if err != nil {
		return "", err
	}

	version, err := catalog.DecodeString(resp)
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", protocol.CodeVersion, err)
	}

	_ = c.state.Apply(func(s *catalog.State) error {
		s.Adapter.Firmware = version
		return nil
	})

	return version, nil
}

func (c *Client) PoolStatus(ctx context.Context) error {
	return c.query(ctx, catalog.PoolStatusRequest())
}

func (c *Client) ControllerConfig(ctx context.Context) error {
	return c.query(ctx, catalog.ControllerConfigRequest())
}

func (c *Client) ChemistryData(ctx context.Context) error {
	return c.query(ctx, catalog.ChemistryDataRequest())
}

func (c *Client) SCGConfig(ctx context.Context) error {
	return c.query(ctx, catalog.SCGConfigRequest())
}

func (c *Client) PumpStatus(ctx context.Context, index int) error {
	req, err := catalog.PumpStatusRequest(index)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", protocol.CodePumpStatus, err)
	}

	resp, err := c.Request(ctx, req)
	if err != nil {
		return err
	}

	if err := catalog.DecodePumpStatus(resp, index, c.state); err != nil {
		return fmt.Errorf("%s request failed: %w", protocol.CodePumpStatus, err)
	}

	return nil
}

// DateTime reads the controller clock.
func (c *Client) DateTime(ctx context.Context) (t time.Time, autoDST bool, err error) {
	if err := c.query(ctx, catalog.GetDateTimeRequest()); err != nil {
		return time.Time{}, false, err
	}

	c.state.View(func(s *catalog.State) {
		t, autoDST = s.Controller.DateTime, s.Controller.AutoDST
	})

	return t, autoDST, nil
}

func (c *Client) SetDateTime(ctx context.Context, t time.Time, autoDST bool) error {
	return c.query(ctx, catalog.SetDateTimeRequest(t, autoDST))
}

// SetCircuit switches a circuit on or off.
func (c *Client) SetCircuit(ctx context.Context, circuitID uint32, on bool) error {
	req, err := catalog.ButtonPressRequest(c.state, circuitID, on)
	return c.command(ctx, protocol.CodeButtonPress, req, err)
}

func (c *Client) SetHeatSetpoint(ctx context.Context, body, temperature int) error {
	req, err := catalog.SetHeatSetpointRequest(c.state, body, temperature)
	return c.command(ctx, protocol.CodeSetHeatSetpoint, req, err)
}

func (c *Client) SetHeatMode(ctx context.Context, body, mode int) error {
	req, err := catalog.SetHeatModeRequest(body, mode)
	return c.command(ctx, protocol.CodeSetHeatMode, req, err)
}

func (c *Client) LightCommand(ctx context.Context, command int) error {
	req, err := catalog.LightCommandRequest(command)
	return c.command(ctx, protocol.CodeLightCommand, req, err)
}

func (c *Client) SetSCGConfig(ctx context.Context, poolPercent, spaPercent int) error {
	req, err := catalog.SetSCGConfigRequest(poolPercent, spaPercent)
	return c.command(ctx, protocol.CodeSetSCGConfig, req, err)
}

// Update refreshes the whole state: the controller config the first time, then
// pool status, chemistry, the salt generator and every present pump.
func (c *Client) Update(ctx context.Context) error {
	var hasConfig bool
	c.state.View(func(s *catalog.State) {
		hasConfig = s.Controller.HasConfig
	})

	if !hasConfig {
		if err := c.ControllerConfig(ctx); err != nil {
			return err
		}
	}

	for _, fn := range []func(context.Context) error{c.PoolStatus, c.ChemistryData, c.SCGConfig} {
		if err := fn(ctx); err != nil {
			return err
		}
	}

	var present []int
	c.state.View(func(s *catalog.State) {
		for i, p := range s.Pumps {
			if p.Present {
				present = append(present, i)
			}
		}
	})

	for _, index := range present {
		if err := c.PumpStatus(ctx, index); err != nil {
			return err
		}
	}

	return nil
}

// Export writes the current state into store.
func (c *Client) Export(ctx context.Context, store storage.Store) error {
	return catalog.Export(ctx, c.state, store)
}
