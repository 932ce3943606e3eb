// Package maven reads published artifact versions from Maven repositories.
//
// Versions come from the maven-metadata.xml document stored next to every
// artifact: {repoUrl}/{group/path}/{artifactId}/maven-metadata.xml.
package maven
