/*Package interval implements interval-aggregation operations over sets of
  genomic coordinates.

  Aggregator (aggregator.go) maps half-open intervals to real-valued
  weights, with repeated additive insertion splitting existing intervals
  rather than just unioning them.

  SearchPosTypes/ExpsearchPosTypes (postype.go) are the sorted-breakpoint
  search primitives the Aggregator is built on, for callers that need to
  locate positions in an endpoint slice directly.

  Everything assumes positions fit in a PosType, which is currently defined
  as int32 since that's what BAM files are limited to.
*/
package interval
