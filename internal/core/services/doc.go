// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
//   - CatalogReconciler: syncs tracked repositories into the catalog
//   - CatalogService: product reads, deletes and installation counts
//   - VersionService: Maven artifact versions with a TTL cache
//   - Scheduler: periodic syncs and cache purges for serve mode
//   - SettingsService: settings backed by the config store
package services
