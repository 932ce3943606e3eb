// Package connectors holds the clients for the remote systems the catalog
// is built from.
//
//   - github: reads market and product repositories (driven.RemoteRepository)
//   - maven: reads artifact versions from maven-metadata.xml (driven.ArtifactFetcher)
package connectors
