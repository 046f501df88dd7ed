// Package config loads and validates the cache deployment configuration.
//
// Configuration comes from three layers, later layers winning:
//
//  1. Built-in defaults (Default), one per knob, tuned for a single
//     dashboard host with an in-memory mirror.
//  2. A YAML file, either passed explicitly to Load or discovered as
//     paxcache.yaml in the working directory or /etc/paxcache.
//  3. PAXCACHE_* environment variables, mapped from key paths by
//     replacing dots with underscores (client.default_ttl becomes
//     PAXCACHE_CLIENT_DEFAULT_TTL).
//
// The loaded Config is plain data plus bridge methods that hand each
// subsystem its own native configuration: TierConfig.Policy for the
// cache tiers, StorageConfig.Open for the persistent substrate,
// ProviderConfig.Stack for upstream protection, and Config.Observe for
// telemetry.
//
// Credential fields never hold secrets in the file itself. They hold
// secret references (env:NAME or file:/path) resolved by ResolveSecret
// at load time, so a committed YAML file stays safe to share.
package config
