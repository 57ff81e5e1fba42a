// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// dotenvFile is read from the working directory when present.
const dotenvFile = ".env"

// parseEnv fills cfg from the `env`/`envPrefix` tags of [StructuredConfig].
// Values come from the process environment, with a .env file filling the
// gaps; the process environment itself is not modified.
func parseEnv(cfg any) error {
	vars, err := environment(dotenvFile)
	if err != nil {
		return err
	}

	if err = env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return fmt.Errorf("error getting env configs: %w", err)
	}

	return nil
}

// environment merges the variables of dotenvPath with the process
// environment. A process variable wins over the same key in the file, and a
// missing file is not an error.
func environment(dotenvPath string) (map[string]string, error) {
	vars, err := godotenv.Read(dotenvPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		vars = make(map[string]string)
	case err != nil:
		return nil, fmt.Errorf("error loading %s file: %w", dotenvPath, err)
	}

	maps.Copy(vars, env.ToMap(os.Environ()))
	return vars, nil
}
