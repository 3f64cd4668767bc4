/*
Package config loads widerow session settings from YAML, a .env file and the
environment.

Example widerow.yaml:

	backend: dynamodb
	dynamodb:
	  table: widerow
	  region: us-west-2
	iterator:
	  batch_size: 250
	consistency:
	  default_read: one
	  default_write: quorum
	  column_families:
	    user_tweets:
	      read: local_quorum
*/
package config
